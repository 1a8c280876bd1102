package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	checkFile   string
	checkFormat string
)

type matchView struct {
	ExistingID string  `json:"existing_id" yaml:"existing_id"`
	MatchType  string  `json:"match_type" yaml:"match_type"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

type checkResult struct {
	Row     int         `json:"row" yaml:"row"`
	LeadID  string      `json:"lead_id" yaml:"lead_id"`
	Name    string      `json:"name,omitempty" yaml:"name,omitempty"`
	Matches []matchView `json:"matches" yaml:"matches"`
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a file's leads against stored leads",
	Long:  "Matches every row of --file against the stored leads and lists the rows that duplicate an existing lead.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("check"); err != nil {
			return err
		}
		ctx := cmd.Context()

		svc, err := newService()
		if err != nil {
			return err
		}
		candidates, err := readLeadFile(checkFile)
		if err != nil {
			return err
		}
		existing, err := loadLeads(ctx, "")
		if err != nil {
			return err
		}

		results := make([]checkResult, 0)
		for i, c := range candidates {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "check cancelled")
			}
			matches := svc.FindMatches(c, existing)
			if len(matches) == 0 {
				continue
			}
			r := checkResult{Row: i + 1, LeadID: c.ID, Name: c.FullName()}
			for _, m := range matches {
				r.Matches = append(r.Matches, matchView{
					ExistingID: m.ExistingLead.ID,
					MatchType:  m.MatchType.String(),
					Confidence: m.Confidence,
				})
			}
			results = append(results, r)
		}

		zap.L().Info("check complete",
			zap.String("file", checkFile),
			zap.Int("rows", len(candidates)),
			zap.Int("existing", len(existing)),
			zap.Int("duplicates", len(results)),
		)
		return writeOutput(cmd.OutOrStdout(), checkFormat, results)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkFile, "file", "", "CSV or XLSX file to check (required)")
	checkCmd.Flags().StringVar(&checkFormat, "format", formatJSON, "output format: json or yaml")
	_ = checkCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(checkCmd)
}
