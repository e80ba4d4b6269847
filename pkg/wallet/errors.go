package wallet

import "errors"

var (
	// ErrInvalidAddress is returned for strings that are not 20-byte hex addresses
	ErrInvalidAddress = errors.New("invalid wallet address")

	// ErrInvalidAmount is returned when an amount does not parse as a decimal number
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNonPositiveAmount is returned when an amount is zero or negative
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")

	// ErrNoRate is returned when a conversion is asked of a balance without an exchange rate
	ErrNoRate = errors.New("exchange rate not available")
)
