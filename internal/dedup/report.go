package dedup

import (
	"fmt"

	"github.com/sells-group/lead-dedup/internal/model"
)

// lowQualityScore is the quality score below which import-time checks are
// recommended.
const lowQualityScore = 80.0

// BuildReport aggregates clusters into a DuplicateReport. Each cluster of
// size n contributes n-1 duplicates, attributed to the type of its strongest
// edge, so DuplicatesByType sums to TotalDuplicates.
func BuildReport(clusters []model.DuplicateGroup, totalLeads int) model.DuplicateReport {
	report := model.DuplicateReport{
		TotalLeads:       totalLeads,
		DuplicatesByType: make(map[model.MatchType]int),
	}

	for _, c := range clusters {
		if c.Size() < 2 {
			continue
		}
		dups := c.Size() - 1
		report.ClusterCount++
		report.TotalDuplicates += dups

		mt := model.MatchFuzzyName
		if e, ok := c.StrongestEdge(); ok {
			mt = e.MatchType
		}
		report.DuplicatesByType[mt] += dups
	}

	if totalLeads > 0 {
		score := 100 * float64(totalLeads-report.TotalDuplicates) / float64(totalLeads)
		report.QualityScore = min(max(score, 0), 100)
	}

	report.Recommendations = recommendations(report)
	return report
}

// recommendations derives advice from the report's own counts only.
func recommendations(r model.DuplicateReport) []string {
	recs := make([]string, 0)
	by := r.DuplicatesByType

	if n := by[model.MatchEmail]; n > 0 {
		recs = append(recs, fmt.Sprintf("Merge %d exact email duplicate(s); they are safe to auto-merge.", n))
	}
	if n := by[model.MatchFuzzyEmail]; n > 0 {
		recs = append(recs, fmt.Sprintf("Review %d fuzzy email match(es) for typos before merging.", n))
	}
	if n := by[model.MatchPhone]; n > 0 {
		recs = append(recs, fmt.Sprintf("Merge %d phone duplicate(s) sharing a normalized number.", n))
	}
	if n := by[model.MatchNameCompany]; n > 0 {
		recs = append(recs, fmt.Sprintf("Review %d name and company match(es).", n))
	}
	if n := by[model.MatchFuzzyName]; n > 0 {
		recs = append(recs, fmt.Sprintf("Review %d low-confidence name match(es) manually.", n))
	}
	if r.TotalLeads > 0 && r.QualityScore < lowQualityScore {
		recs = append(recs, fmt.Sprintf("Data quality is %.1f%%; enable duplicate checks at import time.", r.QualityScore))
	}
	if r.TotalDuplicates == 0 {
		recs = append(recs, "No duplicates detected.")
	}
	return recs
}
