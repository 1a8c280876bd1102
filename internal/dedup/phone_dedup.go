package dedup

import (
	"github.com/sells-group/lead-dedup/internal/model"
	"github.com/sells-group/lead-dedup/internal/normalize"
)

// PhoneDuplicate is a set of leads sharing one normalized phone number.
type PhoneDuplicate struct {
	Phone   string       `json:"phone" yaml:"phone"`
	Kept    model.Lead   `json:"kept" yaml:"kept"`
	Removed []model.Lead `json:"removed" yaml:"removed"`
}

// DedupeByPhone groups leads by normalized phone and picks the record to keep
// in each group with SelectBest. Leads without a phone are ignored; groups
// appear in order of first occurrence.
func DedupeByPhone(leads []model.Lead, countryCode string) []PhoneDuplicate {
	n := normalize.PhoneNormalizer{DefaultCountryCode: countryCode}

	byPhone := make(map[string][]model.Lead)
	var order []string
	for _, l := range leads {
		p := n.Normalize(l.Phone)
		if p == "" {
			continue
		}
		if _, ok := byPhone[p]; !ok {
			order = append(order, p)
		}
		byPhone[p] = append(byPhone[p], l)
	}

	out := make([]PhoneDuplicate, 0)
	for _, p := range order {
		group := byPhone[p]
		if len(group) < 2 {
			continue
		}
		ranked := rank(group)
		out = append(out, PhoneDuplicate{Phone: p, Kept: ranked[0], Removed: ranked[1:]})
	}
	return out
}
