package model

import (
	"github.com/rotisserie/eris"
)

// MatchType classifies why two leads were flagged as duplicates. The numeric
// order is the evaluation priority: lower values win.
type MatchType uint8

const (
	MatchEmail MatchType = iota
	MatchFuzzyEmail
	MatchPhone
	MatchNameCompany
	MatchFuzzyName
)

var matchTypeNames = [...]string{
	MatchEmail:       "email",
	MatchFuzzyEmail:  "fuzzy_email",
	MatchPhone:       "phone",
	MatchNameCompany: "name_company",
	MatchFuzzyName:   "fuzzy_name",
}

// AllMatchTypes returns every match type in priority order.
func AllMatchTypes() []MatchType {
	return []MatchType{MatchEmail, MatchFuzzyEmail, MatchPhone, MatchNameCompany, MatchFuzzyName}
}

func (t MatchType) String() string {
	if int(t) < len(matchTypeNames) {
		return matchTypeNames[t]
	}
	return "unknown"
}

// Valid reports whether t is one of the declared match types.
func (t MatchType) Valid() bool {
	return int(t) < len(matchTypeNames)
}

// MarshalText implements encoding.TextMarshaler.
func (t MatchType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, eris.Errorf("model: invalid match type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *MatchType) UnmarshalText(b []byte) error {
	pt, err := ParseMatchType(string(b))
	if err != nil {
		return err
	}
	*t = pt
	return nil
}

// ParseMatchType parses a wire name such as "fuzzy_email".
func ParseMatchType(s string) (MatchType, error) {
	for i, name := range matchTypeNames {
		if name == s {
			return MatchType(i), nil
		}
	}
	return 0, eris.Errorf("model: unknown match type %q", s)
}

// DuplicateMatch is a scored match of a candidate against one existing lead.
type DuplicateMatch struct {
	ExistingLead Lead      `json:"existing_lead" yaml:"existing_lead"`
	MatchType    MatchType `json:"match_type" yaml:"match_type"`
	Confidence   float64   `json:"confidence" yaml:"confidence"`
}

// Edge is a pairwise match between two cluster members, by lead ID.
type Edge struct {
	A          string    `json:"a" yaml:"a"`
	B          string    `json:"b" yaml:"b"`
	MatchType  MatchType `json:"match_type" yaml:"match_type"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
}

// DuplicateGroup is a cluster of leads transitively linked by matches.
// Members are ordered so that Members[0] is the presentation primary.
type DuplicateGroup struct {
	Members []Lead `json:"members" yaml:"members"`
	Edges   []Edge `json:"edges" yaml:"edges"`
}

// Size returns the number of members.
func (g DuplicateGroup) Size() int {
	return len(g.Members)
}

// Primary returns the first member, or the zero Lead for an empty group.
func (g DuplicateGroup) Primary() Lead {
	if len(g.Members) == 0 {
		return Lead{}
	}
	return g.Members[0]
}

// StrongestEdge returns the highest-confidence edge. Ties go to the
// higher-priority match type, then to the earlier edge.
func (g DuplicateGroup) StrongestEdge() (Edge, bool) {
	if len(g.Edges) == 0 {
		return Edge{}, false
	}
	best := g.Edges[0]
	for _, e := range g.Edges[1:] {
		if e.Confidence > best.Confidence ||
			(e.Confidence == best.Confidence && e.MatchType < best.MatchType) {
			best = e
		}
	}
	return best, true
}

// DuplicateReport summarizes duplicate clusters for dashboards. It is derived
// from the current lead set and never persisted as the source of truth.
type DuplicateReport struct {
	TotalLeads       int               `json:"total_leads" yaml:"total_leads"`
	ClusterCount     int               `json:"cluster_count" yaml:"cluster_count"`
	TotalDuplicates  int               `json:"total_duplicates" yaml:"total_duplicates"`
	DuplicatesByType map[MatchType]int `json:"duplicates_by_type" yaml:"duplicates_by_type"`
	QualityScore     float64           `json:"quality_score" yaml:"quality_score"`
	Recommendations  []string          `json:"recommendations" yaml:"recommendations"`
}
