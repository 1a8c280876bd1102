package fingerprint

import (
	"fmt"
	"math"
)

// DefaultDuplicateThreshold is the similarity above which a non-identical
// file from the same user still counts as a re-upload.
const DefaultDuplicateThreshold = 0.9

const (
	similarThreshold     = 0.7
	columnOverlapMinimum = 0.8
	rowCountTolerance    = 0.1

	weightStructure = 0.3
	weightColumns   = 0.2
	weightSamples   = 0.3
	weightRowCount  = 0.2
)

// Comparison is the verdict of comparing two fingerprints.
type Comparison struct {
	IsIdentical     bool     `json:"is_identical" yaml:"is_identical"`
	IsSimilar       bool     `json:"is_similar" yaml:"is_similar"`
	SimilarityScore float64  `json:"similarity_score" yaml:"similarity_score"`
	Reasons         []string `json:"reasons" yaml:"reasons"`
	UserScopeMatch  bool     `json:"user_scope_match" yaml:"user_scope_match"`
}

// Compare scores how alike two fingerprints are. With scopeCheck set,
// fingerprints owned by different users are never identical or similar.
func Compare(a, b FileHashResult, scopeCheck bool) Comparison {
	sameUser := a.Metadata.UserID == b.Metadata.UserID
	if scopeCheck && !sameUser {
		return Comparison{Reasons: []string{"different user"}}
	}

	c := Comparison{UserScopeMatch: sameUser, Reasons: make([]string, 0, 4)}

	identical := a.CombinedHash == b.CombinedHash
	if scopeCheck {
		identical = a.UserScopedHash == b.UserScopedHash
	}
	if identical {
		c.IsIdentical = true
		c.IsSimilar = true
		c.SimilarityScore = 1.0
		c.Reasons = append(c.Reasons, "identical content")
		return c
	}

	var score float64
	if a.StructureHash == b.StructureHash {
		score += weightStructure
		c.Reasons = append(c.Reasons, "same structure")
	}
	if j := jaccard(a.Metadata.ColumnNames, b.Metadata.ColumnNames); j > columnOverlapMinimum {
		score += weightColumns * j
		c.Reasons = append(c.Reasons, fmt.Sprintf("%.0f%% column overlap", j*100))
	}
	if anyShared(a.Metadata.SampleRows, b.Metadata.SampleRows) {
		score += weightSamples
		c.Reasons = append(c.Reasons, "matching sample rows")
	}
	ra, rb := a.Metadata.RowCount, b.Metadata.RowCount
	if largest := max(ra, rb); largest > 0 && math.Abs(float64(ra-rb)) < rowCountTolerance*float64(largest) {
		score += weightRowCount
		c.Reasons = append(c.Reasons, "similar row count")
	}

	// Rounded so that weight sums land exactly on the similar bar.
	c.SimilarityScore = math.Round(min(score, 1.0)*1000) / 1000
	c.IsSimilar = c.SimilarityScore > similarThreshold
	return c
}

// Verdict is the outcome of checking a new upload against import history.
type Verdict struct {
	IsDuplicate   bool            `json:"is_duplicate" yaml:"is_duplicate"`
	DuplicateHash *FileHashResult `json:"duplicate_hash,omitempty" yaml:"duplicate_hash,omitempty"`
	Similarity    *Comparison     `json:"similarity,omitempty" yaml:"similarity,omitempty"`
}

// Checker finds re-uploads within one user's import history.
type Checker struct {
	// Threshold is the similarity a non-identical file must exceed.
	Threshold float64
}

// FindUserDuplicate looks only at history owned by userID. The first
// identical entry wins; otherwise the first entry scoring above Threshold.
func (c Checker) FindUserDuplicate(newHash FileHashResult, existing []FileHashResult, userID string) Verdict {
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}

	var owned []FileHashResult
	for _, e := range existing {
		if e.Metadata.UserID == userID {
			owned = append(owned, e)
		}
	}

	for i := range owned {
		cmp := Compare(newHash, owned[i], true)
		if cmp.IsIdentical {
			return Verdict{IsDuplicate: true, DuplicateHash: &owned[i], Similarity: &cmp}
		}
	}
	for i := range owned {
		cmp := Compare(newHash, owned[i], true)
		if cmp.IsSimilar && cmp.SimilarityScore > threshold {
			return Verdict{IsDuplicate: true, DuplicateHash: &owned[i], Similarity: &cmp}
		}
	}
	return Verdict{}
}

// FindUserDuplicate checks with DefaultDuplicateThreshold.
func FindUserDuplicate(newHash FileHashResult, existing []FileHashResult, userID string) Verdict {
	return Checker{}.FindUserDuplicate(newHash, existing, userID)
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := set[s]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func anyShared(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}
