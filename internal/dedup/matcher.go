package dedup

import (
	"sort"

	"github.com/sells-group/lead-dedup/internal/model"
	"github.com/sells-group/lead-dedup/internal/normalize"
	"github.com/sells-group/lead-dedup/internal/similarity"
)

// Matcher classifies candidate leads against a pool of existing leads.
type Matcher struct {
	opts   MatchOptions
	phones normalize.PhoneNormalizer
}

// NewMatcher creates a matcher with the given options. Options are not
// validated here; see MatchOptions.Validate.
func NewMatcher(opts MatchOptions) *Matcher {
	return &Matcher{opts: opts, phones: opts.phoneNormalizer()}
}

// Options returns the matcher's options.
func (m *Matcher) Options() MatchOptions {
	return m.opts
}

// features holds the normalized comparison keys of one lead.
type features struct {
	id      string
	email   string
	phone   string
	name    string
	company string
}

func (m *Matcher) features(l model.Lead) features {
	return features{
		id:      l.ID,
		email:   normalize.Email(l.Email),
		phone:   m.phones.Normalize(l.Phone),
		name:    similarity.Normalize(l.FullName()),
		company: normalize.CompanyName(l.Company),
	}
}

// sameLead reports whether two IDs name the same stored lead. Unsaved leads
// have no ID and are never the same lead as each other.
func sameLead(a, b string) bool {
	return a != "" && a == b
}

// FindMatches returns at most one match per pool member, ordered by
// descending confidence with ties kept in pool order. Pool members with the
// candidate's non-empty ID are skipped. An empty pool yields an empty slice.
func (m *Matcher) FindMatches(candidate model.Lead, pool []model.Lead) []model.DuplicateMatch {
	matches := make([]model.DuplicateMatch, 0)
	cf := m.features(candidate)
	for _, existing := range pool {
		if sameLead(existing.ID, candidate.ID) {
			continue
		}
		mt, conf, ok := m.classify(cf, m.features(existing))
		if !ok {
			continue
		}
		matches = append(matches, model.DuplicateMatch{
			ExistingLead: existing,
			MatchType:    mt,
			Confidence:   conf,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// Classify applies the match rules to a single pair. It reports false when
// the leads share a non-empty ID or no rule fires.
func (m *Matcher) Classify(a, b model.Lead) (model.DuplicateMatch, bool) {
	if sameLead(a.ID, b.ID) {
		return model.DuplicateMatch{}, false
	}
	mt, conf, ok := m.classify(m.features(a), m.features(b))
	if !ok {
		return model.DuplicateMatch{}, false
	}
	return model.DuplicateMatch{ExistingLead: b, MatchType: mt, Confidence: conf}, true
}

// classify evaluates the rules in priority order; the first that fires wins.
// Every rule is symmetric in (a, b).
func (m *Matcher) classify(a, b features) (model.MatchType, float64, bool) {
	if a.email != "" && b.email != "" {
		if a.email == b.email {
			return model.MatchEmail, 1.0, true
		}
		if sim := similarity.Levenshtein(a.email, b.email); sim >= m.opts.EmailThreshold {
			return model.MatchFuzzyEmail, sim, true
		}
	}

	if a.phone != "" && b.phone != "" {
		if a.phone == b.phone {
			return model.MatchPhone, 1.0, true
		}
		if sim := similarity.Levenshtein(a.phone, b.phone); sim >= m.opts.PhoneThreshold {
			return model.MatchPhone, sim, true
		}
	}

	if a.name == "" || b.name == "" {
		return 0, 0, false
	}
	nameSim := similarity.NameSimilarity(a.name, b.name)
	if nameSim < m.opts.NameThreshold {
		return 0, 0, false
	}

	if m.opts.IncludeNameCompanyMatch && a.company != "" && b.company != "" {
		if companySim := similarity.Levenshtein(a.company, b.company); companySim >= m.opts.CompanyThreshold {
			return model.MatchNameCompany, (nameSim + companySim) / 2, true
		}
	}

	return model.MatchFuzzyName, nameSim, true
}

// FindDuplicates is a one-shot form of Matcher.FindMatches.
func FindDuplicates(candidate model.Lead, pool []model.Lead, opts MatchOptions) []model.DuplicateMatch {
	return NewMatcher(opts).FindMatches(candidate, pool)
}
