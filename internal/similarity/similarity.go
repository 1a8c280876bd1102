// Package similarity provides symmetric string similarity scores in [0,1]
// used by the fuzzy duplicate comparators.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// Normalize trims, Unicode case-folds and collapses internal whitespace.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// Similarity is the contract similarity function: normalized Levenshtein.
func Similarity(a, b string) float64 {
	return Levenshtein(a, b)
}

// Levenshtein returns 1 - distance/max(len(a), len(b)) over runes of the
// normalized inputs. Two empty strings are identical.
func Levenshtein(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1.0
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	d := levenshtein.ComputeDistance(a, b)
	return clamp(1 - float64(d)/float64(maxLen))
}

// TokenSet returns the Jaccard overlap of the whitespace tokens of a and b.
func TokenSet(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return clamp(float64(inter) / float64(union))
}

// NameSimilarity scores person names, tolerating reordered tokens
// ("Smith John" vs "John Smith").
func NameSimilarity(a, b string) float64 {
	return max(Levenshtein(a, b), TokenSet(a, b))
}

func tokens(s string) map[string]struct{} {
	fields := strings.Fields(Normalize(s))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
