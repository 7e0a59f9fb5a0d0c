package workerpool

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type indexed[R any] struct {
	i   int
	res R
	err error
}

// Ordered processes items concurrently and delivers the results in item
// order. At most window items are in flight at once, counting results
// still waiting for delivery. Each window-sized chunk is dispatched in
// the order given by cmp, which lets callers sort I/O by locality.
//
// deliver runs on the calling goroutine, one call at a time, and receives
// process errors as values. A non-nil error from deliver stops the pool.
// Once ctx is done nothing more is delivered; claimed items finish and
// their results are discarded.
func Ordered[T, R any](
	ctx context.Context,
	workerCount int,
	window int,
	items []T,
	cmp func(a, b T) int,
	process func(context.Context, T) (R, error),
	deliver func(i int, res R, err error) error,
) error {
	if len(items) == 0 {
		return ctx.Err()
	}
	// Workers beyond the window would only wait on the semaphore.
	window = max(window, 1)
	workerCount = min(max(workerCount, 1), window)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(window))
	tasks := make(chan int)
	results := make(chan indexed[R], window)

	g := errgroup.Group{}
	g.Go(func() error {
		defer close(tasks)
		order := make([]int, 0, window)
		for start := 0; start < len(items); start += window {
			order = order[:0]
			for i := start; i < min(start+window, len(items)); i++ {
				order = append(order, i)
			}
			if cmp != nil {
				slices.SortStableFunc(order, func(a, b int) int { return cmp(items[a], items[b]) })
			}
			for _, i := range order {
				if err := sem.Acquire(ctx, 1); err != nil {
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				case tasks <- i:
				}
			}
		}
		return nil
	})
	for range workerCount {
		g.Go(func() error {
			for i := range tasks {
				res, err := process(ctx, items[i])
				results <- indexed[R]{i: i, res: res, err: err}
			}
			return nil
		})
	}
	defer func() {
		cancel()
		_ = g.Wait()
	}()

	pending := make(map[int]indexed[R], window)
	for next := 0; next < len(items); {
		r, ok := pending[next]
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case r := <-results:
				pending[r.i] = r
			}
			continue
		}

		delete(pending, next)
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := deliver(next, r.res, r.err); err != nil {
			return err
		}
		sem.Release(1)
		next++
	}
	return nil
}
