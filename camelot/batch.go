package camelot

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ExtractAll extracts every document in parallel, at most limit at a time
// (limit <= 0 means no limit). Each document gets its own Config and temp
// dir. Results keep the input order; the first error cancels the rest.
func ExtractAll(ctx context.Context, docs []Options, limit int, copts ...ClientOption) ([]*Result, error) {
	results := make([]*Result, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, opts := range docs {
		g.Go(func() error {
			c, err := New(opts, copts...)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			res, err := c.Extract(gctx)
			if err != nil {
				return fmt.Errorf("extract %s: %w", opts.FilePath, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
