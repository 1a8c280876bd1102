package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	phonesFile   string
	phonesFormat string
)

var phonesCmd = &cobra.Command{
	Use:   "phones",
	Short: "List leads that share a normalized phone number",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("phones"); err != nil {
			return err
		}
		ctx := cmd.Context()

		svc, err := newService()
		if err != nil {
			return err
		}
		leads, err := loadLeads(ctx, phonesFile)
		if err != nil {
			return err
		}

		dups := svc.DedupeByPhone(leads)
		removed := 0
		for _, d := range dups {
			removed += len(d.Removed)
		}
		zap.L().Info("phone dedupe complete",
			zap.Int("leads", len(leads)),
			zap.Int("groups", len(dups)),
			zap.Int("removable", removed),
		)
		return writeOutput(cmd.OutOrStdout(), phonesFormat, dups)
	},
}

func init() {
	phonesCmd.Flags().StringVar(&phonesFile, "file", "", "CSV or XLSX file (default: stored leads)")
	phonesCmd.Flags().StringVar(&phonesFormat, "format", formatJSON, "output format: json or yaml")
	rootCmd.AddCommand(phonesCmd)
}
