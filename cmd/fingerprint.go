package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-dedup/internal/fingerprint"
	"github.com/sells-group/lead-dedup/internal/importfile"
)

var (
	fingerprintUser    string
	fingerprintCompare bool
	fingerprintFormat  string
)

type pairComparison struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`

	fingerprint.Comparison `yaml:",inline"`
}

type fingerprintResult struct {
	Files       []fingerprint.FileHashResult `json:"files" yaml:"files"`
	Comparisons []pairComparison             `json:"comparisons,omitempty" yaml:"comparisons,omitempty"`
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <file>...",
	Short: "Hash lead files and optionally compare them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fingerprint"); err != nil {
			return err
		}
		ctx := cmd.Context()

		inputs := make([]fingerprint.FileInput, 0, len(args))
		for _, path := range args {
			t, err := importfile.Read(path)
			if err != nil {
				return eris.Wrap(err, "fingerprint")
			}
			inputs = append(inputs, fingerprint.FileInput{
				Name:   filepath.Base(path),
				UserID: fingerprintUser,
				Rows:   t.Rows(),
			})
		}

		hashes, err := fingerprint.HashFiles(ctx, inputs, cfg.Fingerprint.Concurrency)
		if err != nil {
			return eris.Wrap(err, "fingerprint")
		}

		res := fingerprintResult{Files: hashes}
		if fingerprintCompare {
			for i := 0; i < len(hashes); i++ {
				for j := i + 1; j < len(hashes); j++ {
					res.Comparisons = append(res.Comparisons, pairComparison{
						A:          args[i],
						B:          args[j],
						Comparison: fingerprint.Compare(hashes[i], hashes[j], true),
					})
				}
			}
		}

		zap.L().Info("fingerprint complete",
			zap.Int("files", len(hashes)),
			zap.Int("comparisons", len(res.Comparisons)),
		)
		return writeOutput(cmd.OutOrStdout(), fingerprintFormat, res)
	},
}

func init() {
	fingerprintCmd.Flags().StringVar(&fingerprintUser, "user", "", "user the files belong to")
	fingerprintCmd.Flags().BoolVar(&fingerprintCompare, "compare", false, "compare every pair of files")
	fingerprintCmd.Flags().StringVar(&fingerprintFormat, "format", formatJSON, "output format: json or yaml")
	rootCmd.AddCommand(fingerprintCmd)
}
