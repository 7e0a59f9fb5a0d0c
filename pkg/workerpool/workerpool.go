// Package workerpool runs bounded concurrent work over slices.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Process calls process for every item using at most workerCount
// goroutines. The first error cancels the remaining work and is returned;
// items not yet claimed are skipped. A done ctx is reported as its error.
func Process[T any](
	ctx context.Context,
	workerCount int,
	items []T,
	process func(context.Context, T) error,
) error {
	parent := ctx
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workerCount, 1))

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return process(ctx, item)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return parent.Err()
}
