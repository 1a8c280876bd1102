package normalize

import "strings"

// Email trims and lower-cases an address. No provider-specific rewriting
// (dots, plus tags) is applied.
func Email(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
