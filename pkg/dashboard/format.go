package dashboard

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/config"
	"github.com/nexuspay/nexuspay/pkg/wallet"
)

const DateLayout = "Jan 2, 2006, 03:04 PM"

var typeLabels = map[string]string{
	"crypto_to_paybill": "Pay Bill",
	"crypto_to_till":    "Pay Till",
	"fiat_to_crypto":    "Buy Crypto",
	"crypto_to_fiat":    "Sell Crypto",
	"crypto_transfer":   "Transfer",
	"deposit":           "Deposit",
	"withdrawal":        "Withdrawal",
}

var wordStart = regexp.MustCompile(`\b\w`)

// TypeLabel names a transaction type for display. Unknown types are shown
// as title-cased words.
func TypeLabel(t string) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return wordStart.ReplaceAllStringFunc(strings.ReplaceAll(t, "_", " "), strings.ToUpper)
}

// ExplorerURL links a transaction hash on the chain's block explorer.
// It returns "" for chains without a configured explorer.
func ExplorerURL(cfg *config.Config, chain, hash string) string {
	if hash == "" {
		return ""
	}
	ch, ok := cfg.Chain(chain)
	if !ok || ch.Explorer == "" {
		return ""
	}
	return ch.Explorer + hash
}

// TxExplorerURL prefers the link sent by the backend.
func TxExplorerURL(cfg *config.Config, tx api.Transaction) string {
	if tx.BlockExplorerURL != "" {
		return tx.BlockExplorerURL
	}
	return ExplorerURL(cfg, tx.Chain, tx.TxHash)
}

func FormatDate(s string) string {
	return FormatDateIn(s, time.Local)
}

// FormatDateIn renders an RFC 3339 timestamp in loc. Unparseable input is
// returned as is.
func FormatDateIn(s string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.In(loc).Format(DateLayout)
}

func StatusLabel(status string) string {
	return strings.ToUpper(status)
}

func DirectionSign(direction string) string {
	if direction == api.DirectionCredit {
		return "+"
	}
	return "-"
}

// TokenLine is "12.5 USDC on ARBITRUM", or "" when no token amount was recorded.
func TokenLine(tx api.Transaction) string {
	if tx.TokenAmount == nil || *tx.TokenAmount == 0 || tx.TokenSymbol == "" {
		return ""
	}
	line := fmt.Sprintf("%g %s", *tx.TokenAmount, tx.TokenSymbol)
	if tx.Chain != "" {
		line += " on " + strings.ToUpper(tx.Chain)
	}
	return line
}

// FiatLine lists the USD and KES values that are present.
func FiatLine(tx api.Transaction) string {
	var parts []string
	if tx.AmountInUSD != nil && *tx.AmountInUSD != 0 {
		parts = append(parts, fmt.Sprintf("$%.2f", *tx.AmountInUSD))
	}
	if tx.AmountInKES != nil && *tx.AmountInKES != 0 {
		parts = append(parts, fmt.Sprintf("KES %.2f", *tx.AmountInKES))
	}
	return strings.Join(parts, "  ")
}

// TargetLine describes the M-Pesa destination of a payment.
func TargetLine(tx api.Transaction) string {
	if tx.TargetType == "" && tx.TargetNumber == "" {
		return ""
	}
	label := "Till:"
	if tx.TargetType == api.TargetPaybill {
		label = "Paybill:"
	}
	line := label + " " + tx.TargetNumber
	if tx.AccountNumber != "" {
		line += " • Account: " + tx.AccountNumber
	}
	return line
}

// ShortHash is the hash shown in lists, or "" when there is nothing to link.
func ShortHash(tx api.Transaction) string {
	if tx.TxHash == "" || tx.Chain == "" {
		return ""
	}
	return wallet.ShortenHash(tx.TxHash)
}
