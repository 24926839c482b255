package parallel

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Map applies fn to every item with at most maxConcurrent calls in flight.
// The result at index i belongs to items[i] regardless of completion order.
// The first error cancels the remaining calls and is returned.
// A non-positive maxConcurrent means no limit.
func Map[T, R any](ctx context.Context, items []T, maxConcurrent int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// StaggeredStart runs fns with start i delayed by at least i*delay and at
// most maxConcurrent running at once. Results are indexed like fns. The first
// error cancels the rest and is returned.
func StaggeredStart[T any](ctx context.Context, delay time.Duration, maxConcurrent int, fns ...Func[T]) ([]T, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	results := make([]T, len(fns))

	g, gctx := errgroup.WithContext(ctx)
	for i, fn := range fns {
		g.Go(func() error {
			if err := sleep(gctx, time.Duration(i)*delay); err != nil {
				return err
			}
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			v, err := fn(gctx)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
