package wallet

import (
	"github.com/ethereum/go-ethereum/common"
)

// Info is the wallet bound to the signed-in account.
type Info struct {
	Address common.Address `json:"address"`
	Phone   string         `json:"phone,omitempty"`
	Chain   string         `json:"chain,omitempty"`
}

// NewInfo validates address and bundles it with its owner's phone.
func NewInfo(address, phone, chain string) (Info, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return Info{}, err
	}
	return Info{Address: addr, Phone: phone, Chain: chain}, nil
}

func (i Info) Short() string {
	return Shorten(i.Address.Hex())
}
