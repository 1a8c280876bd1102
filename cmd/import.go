package main

import (
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-dedup/internal/fingerprint"
	"github.com/sells-group/lead-dedup/internal/importfile"
	"github.com/sells-group/lead-dedup/internal/model"
)

var errAlreadyImported = eris.New("file already imported")

var (
	importFile           string
	importUser           string
	importForce          bool
	importSkipDuplicates bool
)

type importResult struct {
	File         string  `json:"file" yaml:"file"`
	UserID       string  `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Imported     int     `json:"imported" yaml:"imported"`
	Skipped      int     `json:"skipped" yaml:"skipped"`
	CombinedHash string  `json:"combined_hash" yaml:"combined_hash"`
	DuplicateOf  string  `json:"duplicate_of,omitempty" yaml:"duplicate_of,omitempty"`
	Similarity   float64 `json:"similarity,omitempty" yaml:"similarity,omitempty"`
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from a CSV or XLSX file",
	Long:  "Fingerprints the file, refuses a re-upload of a file the same user already imported (unless --force), then saves its leads and records the fingerprint.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		ctx := cmd.Context()
		log := zap.L().With(zap.String("component", "import"), zap.String("file", importFile))

		t, err := importfile.Read(importFile)
		if err != nil {
			return eris.Wrap(err, "import")
		}
		rows := t.Rows()
		hash, err := fingerprint.Hash(rows, filepath.Base(importFile), importUser)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		history, err := st.ListFileHashes(ctx, importUser)
		if err != nil {
			return eris.Wrap(err, "import: load history")
		}

		res := importResult{File: importFile, UserID: importUser, CombinedHash: hash.CombinedHash}
		checker := fingerprint.Checker{Threshold: cfg.Fingerprint.DuplicateThreshold}
		if v := checker.FindUserDuplicate(hash, history, importUser); v.IsDuplicate {
			res.DuplicateOf = v.DuplicateHash.FileName
			res.Similarity = v.Similarity.SimilarityScore
			if !importForce {
				return eris.Wrapf(errAlreadyImported, "%s matches %s (%s, similarity %.3f)",
					importFile, v.DuplicateHash.FileName, v.DuplicateHash.CreatedAt.Format(time.RFC3339), v.Similarity.SimilarityScore)
			}
			log.Warn("re-importing duplicate file", zap.String("duplicate_of", res.DuplicateOf))
		}

		leads := importfile.MapLeads(rows, time.Now().UTC())
		if importSkipDuplicates {
			existing, err := st.ListLeads(ctx)
			if err != nil {
				return eris.Wrap(err, "import: list leads")
			}
			svc, err := newService()
			if err != nil {
				return err
			}
			leads = filterNew(svc.FindMatches, leads, existing)
		}
		res.Imported = len(leads)
		res.Skipped = len(rows) - len(leads)

		if err := st.SaveLeads(ctx, leads); err != nil {
			return eris.Wrap(err, "import: save leads")
		}
		if err := st.SaveFileHash(ctx, hash); err != nil {
			return eris.Wrap(err, "import: record file hash")
		}

		log.Info("import complete",
			zap.Int("imported", res.Imported),
			zap.Int("skipped", res.Skipped),
		)
		return writeOutput(cmd.OutOrStdout(), formatJSON, res)
	},
}

// filterNew drops leads matching the existing pool or an earlier lead of the
// same file.
func filterNew(find func(model.Lead, []model.Lead) []model.DuplicateMatch, leads, existing []model.Lead) []model.Lead {
	pool := append([]model.Lead(nil), existing...)
	kept := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if len(find(l, pool)) > 0 {
			continue
		}
		kept = append(kept, l)
		pool = append(pool, l)
	}
	return kept
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to CSV or XLSX file (required)")
	importCmd.Flags().StringVar(&importUser, "user", "", "user the upload belongs to")
	importCmd.Flags().BoolVar(&importForce, "force", false, "import even when the file was already uploaded")
	importCmd.Flags().BoolVar(&importSkipDuplicates, "skip-duplicates", false, "skip leads that match a stored lead")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
