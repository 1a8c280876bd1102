package fingerprint

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FileInput is one parsed file queued for hashing.
type FileInput struct {
	Name   string
	UserID string
	Rows   []Row
}

// HashFiles hashes inputs concurrently, at most concurrency at a time.
// Results are returned in input order. The first error cancels the rest.
func HashFiles(ctx context.Context, inputs []FileInput, concurrency int) ([]FileHashResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	log := zap.L().With(zap.String("component", "fingerprint"))

	results := make([]FileHashResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "fingerprint: hash files cancelled")
			}
			res, err := Hash(in.Rows, in.Name, in.UserID)
			if err != nil {
				return err
			}
			results[i] = res
			log.Debug("file hashed",
				zap.String("file", in.Name),
				zap.Int("rows", res.Metadata.RowCount),
				zap.String("combined_hash", res.CombinedHash),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
