// Package phone normalizes and validates Kenyan mobile numbers as the
// backend expects them: +254 followed by nine digits.
package phone

import (
	"regexp"
	"strings"
)

const CountryCode = "254"

var (
	validPattern  = regexp.MustCompile(`^\+254\d{9}$`)
	nonDigits     = regexp.MustCompile(`\D`)
	maskedPattern = regexp.MustCompile(`^(\+254)(\d{3})(\d{6})$`)
)

// Normalize strips everything but digits, rewrites a leading 0 to 254,
// prefixes 254 when missing, and adds the leading plus. It does not check
// the length; use Valid for that.
func Normalize(input string) string {
	digits := nonDigits.ReplaceAllString(input, "")
	switch {
	case strings.HasPrefix(digits, "0"):
		digits = CountryCode + digits[1:]
	case !strings.HasPrefix(digits, CountryCode):
		digits = CountryCode + digits
	}
	return "+" + digits
}

// Valid reports whether s is exactly +254 followed by nine digits.
func Valid(s string) bool {
	return validPattern.MatchString(s)
}

// Mask hides the three digits after the country code, so
// +254712345678 becomes +254***345678. Invalid input is returned unchanged.
func Mask(s string) string {
	return maskedPattern.ReplaceAllString(s, "$1***$3")
}
