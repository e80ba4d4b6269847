package wallet

import (
	"io"

	"github.com/mdp/qrterminal/v3"
)

// WriteQR draws the checksummed address as a QR code suitable for a terminal.
func WriteQR(w io.Writer, address string) error {
	addr, err := ParseAddress(address)
	if err != nil {
		return err
	}
	qrterminal.GenerateWithConfig(addr.Hex(), qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         w,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      1,
	})
	return nil
}
