package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-dedup/internal/model"
)

const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

// writeOutput encodes v as JSON or YAML.
func writeOutput(out io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unsupported output format: %s", format)
	}
}

// clusterView is the compact form of a duplicate group used in command output.
type clusterView struct {
	Primary    string   `json:"primary" yaml:"primary"`
	Members    []string `json:"members" yaml:"members"`
	MatchType  string   `json:"match_type" yaml:"match_type"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
}

func viewClusters(groups []model.DuplicateGroup) []clusterView {
	views := make([]clusterView, 0, len(groups))
	for _, g := range groups {
		if g.Size() < 2 {
			continue
		}
		v := clusterView{Primary: g.Primary().ID}
		for _, m := range g.Members {
			v.Members = append(v.Members, m.ID)
		}
		if e, ok := g.StrongestEdge(); ok {
			v.MatchType = e.MatchType.String()
			v.Confidence = e.Confidence
		}
		views = append(views, v)
	}
	return views
}

func formatClusters(out io.Writer, report model.DuplicateReport, views []clusterView) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PRIMARY\tSIZE\tMATCH\tCONFIDENCE\tMEMBERS")
	_, _ = fmt.Fprintln(w, "-------\t----\t-----\t----------\t-------")
	for _, v := range views {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\t%s\n",
			truncateID(v.Primary),
			len(v.Members),
			v.MatchType,
			v.Confidence,
			strings.Join(v.Members, ","),
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%d leads, %d clusters, %d duplicates, quality %.1f\n",
		report.TotalLeads, report.ClusterCount, report.TotalDuplicates, report.QualityScore)
	for _, r := range report.Recommendations {
		_, _ = fmt.Fprintf(out, "- %s\n", r)
	}
}

func truncateID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
