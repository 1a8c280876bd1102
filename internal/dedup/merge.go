package dedup

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-dedup/internal/model"
)

// MergePlan describes the outcome of merging one cluster.
type MergePlan struct {
	Merged       model.Lead   `json:"merged" yaml:"merged"`
	Absorbed     []model.Lead `json:"absorbed" yaml:"absorbed"`
	FilledFields []string     `json:"filled_fields,omitempty" yaml:"filled_fields,omitempty"`
}

// AbsorbedIDs returns the IDs of the records folded into Merged.
func (p MergePlan) AbsorbedIDs() []string {
	ids := make([]string, len(p.Absorbed))
	for i, l := range p.Absorbed {
		ids[i] = l.ID
	}
	return ids
}

// betterLead reports whether a outranks b: higher completeness, then more
// recent contact (or creation), then more emails sent, then status priority.
func betterLead(a, b model.Lead) bool {
	if a.CompletenessScore != b.CompletenessScore {
		return a.CompletenessScore > b.CompletenessScore
	}
	ra, rb := a.RecencyDate(), b.RecencyDate()
	if !ra.Equal(rb) {
		return ra.After(rb)
	}
	if a.EmailsSent != b.EmailsSent {
		return a.EmailsSent > b.EmailsSent
	}
	return model.StatusPriority(a.Status) > model.StatusPriority(b.Status)
}

// rank returns a copy of group in merge ranking order. Full ties keep input order.
func rank(group []model.Lead) []model.Lead {
	ranked := make([]model.Lead, len(group))
	copy(ranked, group)
	sort.SliceStable(ranked, func(i, j int) bool {
		return betterLead(ranked[i], ranked[j])
	})
	return ranked
}

// SelectBest picks the highest-ranked record without synthesizing fields.
func SelectBest(group []model.Lead) (model.Lead, error) {
	if len(group) == 0 {
		return model.Lead{}, eris.Wrap(ErrInvalidArgument, "dedup: select best from empty cluster")
	}
	return rank(group)[0], nil
}

// Merge builds the canonical record for a cluster.
func Merge(group []model.Lead) (model.Lead, error) {
	plan, err := PlanMerge(group)
	if err != nil {
		return model.Lead{}, err
	}
	return plan.Merged, nil
}

// mergeField is an optional string field that the merge may fill.
type mergeField struct {
	name string
	get  func(*model.Lead) *string
}

var mergeFields = []mergeField{
	{"first_name", func(l *model.Lead) *string { return &l.FirstName }},
	{"last_name", func(l *model.Lead) *string { return &l.LastName }},
	{"email", func(l *model.Lead) *string { return &l.Email }},
	{"phone", func(l *model.Lead) *string { return &l.Phone }},
	{"company", func(l *model.Lead) *string { return &l.Company }},
	{"title", func(l *model.Lead) *string { return &l.Title }},
	{"linkedin_url", func(l *model.Lead) *string { return &l.LinkedInURL }},
	{"industry", func(l *model.Lead) *string { return &l.Industry }},
	{"location", func(l *model.Lead) *string { return &l.Location }},
	{"website", func(l *model.Lead) *string { return &l.Website }},
	{"source", func(l *model.Lead) *string { return &l.Source }},
}

// PlanMerge starts from SelectBest and fills each empty field from the first
// non-empty value among the other members in ranking order. Non-empty base
// values always win; the base ID never changes and a non-empty base email is
// never overwritten.
func PlanMerge(group []model.Lead) (MergePlan, error) {
	if len(group) == 0 {
		return MergePlan{}, eris.Wrap(ErrInvalidArgument, "dedup: merge empty cluster")
	}

	ranked := rank(group)
	merged := ranked[0]
	rest := ranked[1:]

	var filled []string
	for _, f := range mergeFields {
		dst := f.get(&merged)
		if strings.TrimSpace(*dst) != "" {
			continue
		}
		for i := range rest {
			if v := *f.get(&rest[i]); strings.TrimSpace(v) != "" {
				*dst = v
				filled = append(filled, f.name)
				break
			}
		}
	}

	if merged.Status == "" {
		for _, l := range rest {
			if l.Status != "" {
				merged.Status = l.Status
				filled = append(filled, "status")
				break
			}
		}
	}

	for _, l := range rest {
		if l.EmailsSent > merged.EmailsSent {
			merged.EmailsSent = l.EmailsSent
		}
		if l.LastContactDate != nil && (merged.LastContactDate == nil || l.LastContactDate.After(*merged.LastContactDate)) {
			t := *l.LastContactDate
			merged.LastContactDate = &t
		}
	}

	if c := model.Completeness(merged); c > merged.CompletenessScore {
		merged.CompletenessScore = c
	}

	return MergePlan{Merged: merged, Absorbed: rest, FilledFields: filled}, nil
}
