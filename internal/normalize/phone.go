// Package normalize canonicalizes lead fields (phones, emails, company
// names) into comparable forms.
package normalize

import "strings"

// DefaultCountryCode is prefixed to bare 10-digit numbers. North American
// numbering is assumed when no country code is present in the input.
const DefaultCountryCode = "1"

// PhoneNormalizer reduces phone numbers to a digit string.
type PhoneNormalizer struct {
	// DefaultCountryCode is prefixed to 10-digit numbers. Empty means
	// DefaultCountryCode.
	DefaultCountryCode string
}

// Normalize strips every non-digit. A 10-digit result gets the default
// country code prepended; any other length is returned unchanged. Empty
// input yields "".
func (n PhoneNormalizer) Normalize(phone string) string {
	digits := digitsOnly(phone)
	if len(digits) != 10 {
		return digits
	}
	cc := n.DefaultCountryCode
	if cc == "" {
		cc = DefaultCountryCode
	}
	return cc + digits
}

// NormalizePhone normalizes with the "1" country code.
func NormalizePhone(phone string) string {
	return PhoneNormalizer{}.Normalize(phone)
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
