package dedup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-dedup/internal/model"
)

// Service exposes the engine as plain request/response methods. It holds
// only immutable options and is safe for concurrent use.
type Service struct {
	matcher *Matcher
}

// NewService validates opts and creates a Service.
func NewService(opts MatchOptions) (*Service, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Service{matcher: NewMatcher(opts)}, nil
}

// Options returns the service's match options.
func (s *Service) Options() MatchOptions {
	return s.matcher.Options()
}

// FindMatches matches one candidate against an existing pool.
func (s *Service) FindMatches(candidate model.Lead, pool []model.Lead) []model.DuplicateMatch {
	matches := s.matcher.FindMatches(candidate, pool)
	zap.L().Debug("dedup: find matches",
		zap.String("candidate_id", candidate.ID),
		zap.Int("pool", len(pool)),
		zap.Int("matches", len(matches)),
	)
	return matches
}

// BuildClusters clusters leads, reporting progress when non-nil.
func (s *Service) BuildClusters(ctx context.Context, leads []model.Lead, progress ProgressFunc) ([]model.DuplicateGroup, error) {
	start := time.Now()
	groups, err := s.matcher.Clusters(ctx, leads, progress)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("dedup: clusters built",
		zap.Int("leads", len(leads)),
		zap.Int("clusters", len(groups)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return groups, nil
}

// SelectBest picks one record from a cluster.
func (s *Service) SelectBest(group []model.Lead) (model.Lead, error) {
	return SelectBest(group)
}

// Merge builds the canonical record of a cluster.
func (s *Service) Merge(group []model.Lead) (MergePlan, error) {
	return PlanMerge(group)
}

// Report clusters leads and summarizes the result.
func (s *Service) Report(ctx context.Context, leads []model.Lead) (model.DuplicateReport, []model.DuplicateGroup, error) {
	groups, err := s.BuildClusters(ctx, leads, nil)
	if err != nil {
		return model.DuplicateReport{}, nil, err
	}
	return BuildReport(groups, len(leads)), groups, nil
}

// DedupeByPhone lists phone-only duplicates using the configured country code.
func (s *Service) DedupeByPhone(leads []model.Lead) []PhoneDuplicate {
	return DedupeByPhone(leads, s.matcher.Options().DefaultCountryCode)
}
