package resilience

import (
	"context"
	"time"

	"github.com/jonwraymond/agentops/observe"
)

// Executor composes multiple resilience patterns.
type Executor struct {
	retry          *Retry
	circuitBreaker *CircuitBreaker
	rateLimiter    *RateLimiter
	semaphore      *SemaphorePool
	timeout        *Timeout
	middleware     *observe.Middleware
	meta           observe.OperationMeta
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRetryPolicy adds retry logic driven by policy.
func WithRetryPolicy(policy RetryPolicy) ExecutorOption {
	return func(e *Executor) {
		e.retry = NewRetry(policy)
	}
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithSemaphore bounds concurrency with the named pool of m.
func WithSemaphore(m *SemaphoreManager, name string) ExecutorOption {
	return func(e *Executor) {
		e.semaphore = m.Pool(name)
	}
}

// WithTimeout adds a timeout to every attempt.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig adds a timeout with custom config to the executor.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// WithObserver instruments every attempt with mw under meta.
func WithObserver(mw *observe.Middleware, meta observe.OperationMeta) ExecutorOption {
	return func(e *Executor) {
		e.middleware = mw
		e.meta = meta
	}
}

// CircuitBreaker returns the configured breaker, if any.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Execute runs the operation through all configured resilience patterns.
//
// The execution order, outermost first, is:
// 1. Retry (if configured) - repeats the whole chain below
// 2. Circuit Breaker (if configured) - rejects attempts while open
// 3. Rate Limiter (if configured) - paces attempts
// 4. Semaphore (if configured) - bounds concurrent attempts
// 5. Observer (if configured) - one span per attempt
// 6. Timeout (if configured) - limits each attempt
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.middleware != nil {
		execute = e.middleware.Wrap(e.meta, execute)
	}

	if e.semaphore != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.semaphore.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	if e.retry != nil {
		r := e.retry
		if e.middleware != nil {
			r = r.withHook(func(attempt int) {
				e.middleware.RecordRetry(ctx, e.meta, attempt)
			})
		}
		return r.Execute(ctx, execute)
	}

	return execute(ctx)
}
