package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-dedup/internal/dedup"
	"github.com/sells-group/lead-dedup/internal/model"
)

var (
	scanFile   string
	scanFormat string
)

// scanResult is the scan command output.
type scanResult struct {
	Report   model.DuplicateReport `json:"report" yaml:"report"`
	Clusters []clusterView         `json:"clusters" yaml:"clusters"`
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Cluster duplicate leads and print a quality report",
	Long:  "Clusters the leads in --file, or every stored lead when no file is given, and prints the duplicate clusters with a quality report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("scan"); err != nil {
			return err
		}
		ctx := cmd.Context()
		log := zap.L().With(zap.String("component", "scan"))

		svc, err := newService()
		if err != nil {
			return err
		}
		leads, err := loadLeads(ctx, scanFile)
		if err != nil {
			return err
		}

		groups, err := svc.BuildClusters(ctx, leads, progressLogger(log, "clustering"))
		if err != nil {
			return eris.Wrap(err, "scan")
		}
		report := dedup.BuildReport(groups, len(leads))

		log.Info("scan complete",
			zap.Int("leads", report.TotalLeads),
			zap.Int("clusters", report.ClusterCount),
			zap.Float64("quality_score", report.QualityScore),
		)

		views := viewClusters(groups)
		if strings.EqualFold(scanFormat, formatTable) {
			formatClusters(cmd.OutOrStdout(), report, views)
			return nil
		}
		return writeOutput(cmd.OutOrStdout(), scanFormat, scanResult{Report: report, Clusters: views})
	},
}

// progressLogger logs clustering progress roughly every tenth of the work.
func progressLogger(log *zap.Logger, stage string) func(done, total int) {
	return func(done, total int) {
		step := total / 10
		if step == 0 {
			step = 1
		}
		if done%step == 0 || done == total {
			log.Info(stage+" progress", zap.Int("done", done), zap.Int("total", total))
		}
	}
}

func init() {
	scanCmd.Flags().StringVar(&scanFile, "file", "", "CSV or XLSX file to scan (default: stored leads)")
	scanCmd.Flags().StringVar(&scanFormat, "format", formatJSON, "output format: json, yaml or table")
	rootCmd.AddCommand(scanCmd)
}
