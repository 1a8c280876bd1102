package dedup

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-dedup/internal/model"
	"github.com/sells-group/lead-dedup/internal/resilience"
)

// LeadWriter persists merge results. Implemented by the lead stores.
type LeadWriter interface {
	SaveLead(ctx context.Context, l model.Lead) error
	DeleteLeads(ctx context.Context, ids []string) error
}

// MergeSummary reports what an auto-merge run did.
type MergeSummary struct {
	Clusters int         `json:"clusters" yaml:"clusters"` // processed
	Merged   int         `json:"merged" yaml:"merged"`
	Removed  int         `json:"removed" yaml:"removed"`
	Plans    []MergePlan `json:"plans,omitempty" yaml:"plans,omitempty"`
}

// AutoMerger merges clusters one at a time, persisting each result before
// starting the next so that writes to the backing store never overlap.
type AutoMerger struct {
	Writer LeadWriter
	// Limiter paces clusters; nil means unlimited.
	Limiter *rate.Limiter
	// OnProgress is called after each cluster with processed/total.
	OnProgress func(processed, total int)
	// DryRun plans merges without writing.
	DryRun bool
	// Retry retries a cluster's writes on transient store errors; nil
	// means one attempt.
	Retry *resilience.RetryConfig
}

// Run merges every cluster with two or more members. On error or
// cancellation the clusters already written stay written and the summary
// covers them.
func (a *AutoMerger) Run(ctx context.Context, clusters []model.DuplicateGroup) (MergeSummary, error) {
	log := zap.L().With(zap.String("component", "auto_merge"))

	var summary MergeSummary
	total := len(clusters)
	for i, c := range clusters {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "dedup: auto-merge cancelled")
		}
		if a.Limiter != nil {
			if err := a.Limiter.Wait(ctx); err != nil {
				return summary, eris.Wrap(err, "dedup: auto-merge rate limit")
			}
		}

		if c.Size() >= 2 {
			plan, err := PlanMerge(c.Members)
			if err != nil {
				return summary, err
			}
			if !a.DryRun {
				if err := a.apply(ctx, plan); err != nil {
					return summary, err
				}
			}
			summary.Merged++
			summary.Removed += len(plan.Absorbed)
			summary.Plans = append(summary.Plans, plan)

			log.Debug("auto-merge: cluster merged",
				zap.String("kept_id", plan.Merged.ID),
				zap.Strings("absorbed_ids", plan.AbsorbedIDs()),
				zap.Strings("filled", plan.FilledFields),
				zap.Bool("dry_run", a.DryRun),
			)
		}

		summary.Clusters++
		if a.OnProgress != nil {
			a.OnProgress(i+1, total)
		}
	}
	return summary, nil
}

func (a *AutoMerger) apply(ctx context.Context, plan MergePlan) error {
	if a.Writer == nil {
		return eris.Wrap(ErrInvalidArgument, "dedup: auto-merge requires a writer")
	}
	if a.Retry == nil {
		return a.write(ctx, plan)
	}
	return resilience.Do(ctx, *a.Retry, func(ctx context.Context) error {
		return a.write(ctx, plan)
	})
}

// write saves the merged record, then deletes the absorbed ones. Both steps
// are idempotent, so a retry after partial success is safe.
func (a *AutoMerger) write(ctx context.Context, plan MergePlan) error {
	if err := a.Writer.SaveLead(ctx, plan.Merged); err != nil {
		return eris.Wrapf(err, "dedup: save merged lead %s", plan.Merged.ID)
	}
	if err := a.Writer.DeleteLeads(ctx, plan.AbsorbedIDs()); err != nil {
		return eris.Wrapf(err, "dedup: delete absorbed leads of %s", plan.Merged.ID)
	}
	return nil
}
