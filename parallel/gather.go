package parallel

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/agentops/faults"
)

// Func is a unit of concurrent work producing a T.
type Func[T any] func(ctx context.Context) (T, error)

// Outcome is the value or error produced by one Func.
type Outcome[T any] struct {
	Value T
	Err   error
}

// GatherWithTimeout runs every fn concurrently and waits for all of them.
// Individual failures are reported in the returned outcomes, indexed like
// fns. A non-positive timeout waits without a deadline.
//
// If timeout elapses first, the members' context is canceled and the whole
// group fails with a timeout_error wrapping ErrGatherTimeout. If ctx ends
// first, ctx.Err() is returned.
func GatherWithTimeout[T any](ctx context.Context, timeout time.Duration, fns ...Func[T]) ([]Outcome[T], error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	outcomes := make([]Outcome[T], len(fns))
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := fn(runCtx)
			outcomes[i] = Outcome[T]{Value: v, Err: err}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return outcomes, nil
	case <-expired:
		return nil, faults.Timeout("gather", "parallel gather timed out",
			faults.WithCause(ErrGatherTimeout),
			faults.WithContextData(map[string]any{
				"timeout_seconds": timeout.Seconds(),
				"members":         len(fns),
			}),
		)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pending holds the functions still running when Race returned.
type Pending struct {
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
	running int
}

// Len returns how many functions were still running when the race was
// decided.
func (p *Pending) Len() int {
	return p.running
}

// Cancel cancels the context of the remaining functions.
func (p *Pending) Cancel() {
	p.cancel()
}

// Wait blocks until every remaining function has returned.
func (p *Pending) Wait() {
	p.wg.Wait()
}

// Race runs every fn concurrently and returns the value and error of the
// first one to finish. The others keep running; the caller stops them with
// Pending.Cancel and may Pending.Wait for them to exit.
//
// If ctx ends before any fn finishes, ctx.Err() is returned and every fn is
// pending.
func Race[T any](ctx context.Context, fns ...Func[T]) (T, *Pending, error) {
	var zero T
	if len(fns) == 0 {
		return zero, nil, ErrNoFunctions
	}

	runCtx, cancel := context.WithCancel(ctx)
	pending := &Pending{cancel: cancel, wg: &sync.WaitGroup{}}

	finished := make(chan Outcome[T], len(fns))
	for _, fn := range fns {
		pending.wg.Add(1)
		go func() {
			defer pending.wg.Done()
			v, err := fn(runCtx)
			finished <- Outcome[T]{Value: v, Err: err}
		}()
	}

	select {
	case first := <-finished:
		pending.running = len(fns) - 1
		return first.Value, pending, first.Err
	case <-ctx.Done():
		pending.running = len(fns)
		return zero, pending, ctx.Err()
	}
}
