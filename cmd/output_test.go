package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-dedup/internal/model"
)

func TestWriteOutput(t *testing.T) {
	v := map[string]int{"clusters": 2}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "JSON", v))
	assert.JSONEq(t, `{"clusters": 2}`, buf.String())

	buf.Reset()
	require.NoError(t, writeOutput(&buf, formatYAML, v))
	assert.Equal(t, "clusters: 2\n", buf.String())

	err := writeOutput(&buf, "xml", v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestViewClusters(t *testing.T) {
	groups := []model.DuplicateGroup{
		{Members: []model.Lead{{ID: "solo"}}},
		{
			Members: []model.Lead{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			Edges: []model.Edge{
				{A: "a", B: "b", MatchType: model.MatchFuzzyName, Confidence: 0.82},
				{A: "a", B: "c", MatchType: model.MatchEmail, Confidence: 1},
			},
		},
	}

	views := viewClusters(groups)
	require.Len(t, views, 1)
	assert.Equal(t, "a", views[0].Primary)
	assert.Equal(t, []string{"a", "b", "c"}, views[0].Members)
	assert.Equal(t, "email", views[0].MatchType)
	assert.InDelta(t, 1.0, views[0].Confidence, 0.001)
}

func TestFormatClusters(t *testing.T) {
	var buf bytes.Buffer
	report := model.DuplicateReport{
		TotalLeads:      10,
		ClusterCount:    1,
		TotalDuplicates: 1,
		QualityScore:    90,
		Recommendations: []string{"review fuzzy matches"},
	}
	formatClusters(&buf, report, []clusterView{{
		Primary:    "0123456789abcdef",
		Members:    []string{"0123456789abcdef", "x"},
		MatchType:  "phone",
		Confidence: 0.95,
	}})

	out := buf.String()
	assert.Contains(t, out, "PRIMARY")
	assert.Contains(t, out, "0123456789ab ")
	assert.Contains(t, out, "0.95")
	assert.Contains(t, out, "10 leads, 1 clusters, 1 duplicates, quality 90.0")
	assert.Contains(t, out, "- review fuzzy matches")
}
