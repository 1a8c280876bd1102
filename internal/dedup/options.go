// Package dedup is the duplicate detection and resolution engine: pairwise
// fuzzy matching, transitive clustering, canonical merge and the quality
// report. Every function takes its full input as arguments and returns new
// values, so it is safe for concurrent use.
package dedup

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-dedup/internal/normalize"
)

// ErrInvalidArgument marks a caller contract violation (empty cluster,
// out-of-range threshold).
var ErrInvalidArgument = eris.New("dedup: invalid argument")

// MatchOptions tunes the fuzzy matcher.
type MatchOptions struct {
	// EmailThreshold is the minimum similarity for a fuzzy_email match.
	EmailThreshold float64 `json:"email_threshold" yaml:"email_threshold"`
	// NameThreshold is the minimum full-name similarity for name matches.
	NameThreshold float64 `json:"name_threshold" yaml:"name_threshold"`
	// PhoneThreshold is the minimum similarity between normalized phones.
	PhoneThreshold float64 `json:"phone_threshold" yaml:"phone_threshold"`
	// CompanyThreshold is the company bar for name_company matches.
	CompanyThreshold float64 `json:"company_threshold" yaml:"company_threshold"`
	// IncludeNameCompanyMatch enables the name+company compound rule.
	IncludeNameCompanyMatch bool `json:"include_name_company" yaml:"include_name_company"`
	// DefaultCountryCode is prefixed to 10-digit phone numbers.
	DefaultCountryCode string `json:"default_country_code" yaml:"default_country_code"`
}

// DefaultMatchOptions returns the stock thresholds.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		EmailThreshold:          0.85,
		NameThreshold:           0.8,
		PhoneThreshold:          0.9,
		CompanyThreshold:        0.9,
		IncludeNameCompanyMatch: true,
		DefaultCountryCode:      normalize.DefaultCountryCode,
	}
}

// Validate checks that every threshold lies in (0, 1].
func (o MatchOptions) Validate() error {
	thresholds := []struct {
		name string
		v    float64
	}{
		{"email_threshold", o.EmailThreshold},
		{"name_threshold", o.NameThreshold},
		{"phone_threshold", o.PhoneThreshold},
		{"company_threshold", o.CompanyThreshold},
	}
	for _, th := range thresholds {
		if th.v <= 0 || th.v > 1 {
			return eris.Wrapf(ErrInvalidArgument, "%s must be in (0,1], got %v", th.name, th.v)
		}
	}
	return nil
}

func (o MatchOptions) phoneNormalizer() normalize.PhoneNormalizer {
	return normalize.PhoneNormalizer{DefaultCountryCode: o.DefaultCountryCode}
}
