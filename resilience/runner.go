package resilience

import (
	"context"
	"sync"
)

// Runner is implemented by every pattern in this package and by Executor.
type Runner interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// Call runs fn through r and returns its value. Only the most recently
// started attempt may set the result, so an attempt abandoned by Timeout
// that finishes late cannot replace the value of the attempt that succeeded.
func Call[T any](ctx context.Context, r Runner, fn func(context.Context) (T, error)) (T, error) {
	var (
		mu     sync.Mutex
		latest int
		result T
	)
	err := r.Execute(ctx, func(ctx context.Context) error {
		mu.Lock()
		latest++
		attempt := latest
		mu.Unlock()

		v, err := fn(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		if attempt == latest {
			result = v
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	mu.Lock()
	defer mu.Unlock()
	return result, nil
}

// Wrap returns fn decorated by r. Calling the result is equivalent to
// Call(ctx, r, fn).
func Wrap[T any](r Runner, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Call(ctx, r, fn)
	}
}

var (
	_ Runner = (*CircuitBreaker)(nil)
	_ Runner = (*Retry)(nil)
	_ Runner = (*RateLimiter)(nil)
	_ Runner = (*SemaphorePool)(nil)
	_ Runner = (*Timeout)(nil)
	_ Runner = (*Executor)(nil)
)
