package wallet

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	USDCDecimals = 6
	KESDecimals  = 2
)

// ParseAmount parses a user-entered amount. It must be a number greater than zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	return d, nil
}

// Balance is a fetched wallet balance with the KES rate it was quoted at.
type Balance struct {
	USDC decimal.Decimal
	KES  decimal.Decimal
	Rate decimal.Decimal // KES per USDC
}

// NewBalance builds a Balance from the backend's textual fields. Empty
// strings count as zero.
func NewBalance(usdc, kes string, rate float64) (Balance, error) {
	u, err := parseOptional(usdc)
	if err != nil {
		return Balance{}, fmt.Errorf("usdc balance: %w", err)
	}
	k, err := parseOptional(kes)
	if err != nil {
		return Balance{}, fmt.Errorf("kes balance: %w", err)
	}
	return Balance{USDC: u, KES: k, Rate: decimal.NewFromFloat(rate)}, nil
}

func parseOptional(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// CryptoFor converts a KES amount into USDC at the balance's rate, rounded
// to USDC precision for sending.
func (b Balance) CryptoFor(kes decimal.Decimal) (decimal.Decimal, error) {
	if !b.Rate.IsPositive() {
		return decimal.Zero, ErrNoRate
	}
	return kes.DivRound(b.Rate, USDCDecimals), nil
}

// CoversKES reports whether the USDC balance pays for kes at the balance's
// rate. The comparison is exact: kes <= USDC * rate.
func (b Balance) CoversKES(kes decimal.Decimal) bool {
	return kes.LessThanOrEqual(b.USDC.Mul(b.Rate))
}

// Covers reports whether the USDC balance is at least amount.
func (b Balance) Covers(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(b.USDC)
}

func (b Balance) FormattedUSDC() string {
	return FormatAmount(b.USDC, 2) + " USDC"
}

func (b Balance) FormattedKES() string {
	return "KES " + FormatAmount(b.KES, KESDecimals)
}

// FormatAmount renders d with the given decimals and thousands separators.
func FormatAmount(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
