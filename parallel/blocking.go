package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// BlockingPool bounds how many blocking calls run at once.
type BlockingPool struct {
	sem  *semaphore.Weighted
	size int
}

// NewBlockingPool creates a pool of size workers. A non-positive size uses
// GOMAXPROCS.
func NewBlockingPool(size int) *BlockingPool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &BlockingPool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of workers.
func (p *BlockingPool) Size() int {
	return p.size
}

// RunBlocking runs fn on pool and waits for it or for ctx to end. fn cannot
// be interrupted: on cancellation RunBlocking returns ctx.Err() at once and
// the worker slot is released when fn eventually returns. A nil pool runs fn
// without a bound.
func RunBlocking[T any](ctx context.Context, pool *BlockingPool, fn func() (T, error)) (T, error) {
	var zero T
	if pool != nil {
		if err := pool.sem.Acquire(ctx, 1); err != nil {
			return zero, err
		}
	}

	done := make(chan Outcome[T], 1)
	go func() {
		if pool != nil {
			defer pool.sem.Release(1)
		}
		v, err := fn()
		done <- Outcome[T]{Value: v, Err: err}
	}()

	select {
	case out := <-done:
		return out.Value, out.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
