package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-dedup/internal/dedup"
	"github.com/sells-group/lead-dedup/internal/resilience"
)

var (
	mergeDryRun bool
	mergeFormat string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge every duplicate cluster in the store",
	Long:  "Clusters the stored leads and merges each cluster into its best record, one cluster at a time. Absorbed records are deleted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("merge"); err != nil {
			return err
		}
		ctx := cmd.Context()
		log := zap.L().With(zap.String("component", "merge"))

		svc, err := newService()
		if err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		leads, err := st.ListLeads(ctx)
		if err != nil {
			return eris.Wrap(err, "merge: list leads")
		}
		groups, err := svc.BuildClusters(ctx, leads, progressLogger(log, "clustering"))
		if err != nil {
			return eris.Wrap(err, "merge")
		}

		retry := resilience.FromSettings(cfg.Merge.MaxAttempts, cfg.Merge.InitialBackoffMs)
		retry.OnRetry = resilience.RetryLogger("merge")

		merger := &dedup.AutoMerger{
			Writer:     st,
			Limiter:    mergeLimiter(cfg.Merge.WritesPerSecond, cfg.Merge.Burst),
			OnProgress: progressLogger(log, "merge"),
			DryRun:     mergeDryRun,
			Retry:      &retry,
		}
		summary, err := merger.Run(ctx, groups)
		log.Info("merge finished",
			zap.Int("clusters", summary.Clusters),
			zap.Int("merged", summary.Merged),
			zap.Int("removed", summary.Removed),
			zap.Bool("dry_run", mergeDryRun),
		)
		if err != nil {
			return eris.Wrap(err, "merge")
		}
		return writeOutput(cmd.OutOrStdout(), mergeFormat, summary)
	},
}

// mergeLimiter returns nil (unlimited) when perSecond is not positive.
func mergeLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func init() {
	mergeCmd.Flags().BoolVar(&mergeDryRun, "dry-run", false, "plan merges without writing")
	mergeCmd.Flags().StringVar(&mergeFormat, "format", formatJSON, "output format: json or yaml")
	rootCmd.AddCommand(mergeCmd)
}
