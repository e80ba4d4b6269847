package wallet

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress validates s as an EVM address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// Checksum returns the EIP-55 form of s, or s unchanged when it is not an address.
func Checksum(s string) string {
	addr, err := ParseAddress(s)
	if err != nil {
		return s
	}
	return addr.Hex()
}

// Shorten renders an address as 0x1234...abcd.
func Shorten(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// ShortenHash keeps the first and last eight characters of a transaction hash.
func ShortenHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:8] + "..." + hash[len(hash)-8:]
}
