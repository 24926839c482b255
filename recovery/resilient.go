package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/observe"
	"github.com/jonwraymond/agentops/resilience"
)

// ResilientConfig configures an Operation.
type ResilientConfig struct {
	// Component names the protected function. Fallbacks and the circuit
	// breaker are registered under it. Required.
	Component string

	// Operation is recorded on errors that lack one.
	Operation string

	// MaxRetries bounds the exponential backoff retries.
	// Default: 3
	MaxRetries int

	// Policy overrides the exponential backoff built from MaxRetries.
	Policy resilience.RetryPolicy

	// CircuitBreaker, when set, registers a breaker for Component.
	CircuitBreaker *resilience.CircuitBreakerConfig

	// Fallback, when set, is registered for Component.
	Fallback FallbackFunc

	// Timeout bounds each attempt. Zero means no per-attempt timeout.
	Timeout time.Duration

	// Logger receives retry notices. Default: no-op.
	Logger observe.Logger
}

// Operation is a function protected by retry, an optional circuit breaker
// and an ErrorHandler.
type Operation[T any] struct {
	handler  *ErrorHandler
	config   ResilientConfig
	fn       func(context.Context) (T, error)
	executor *resilience.Executor
}

// NewOperation registers cfg's breaker and fallback on h and returns the
// protected form of fn.
func NewOperation[T any](h *ErrorHandler, cfg ResilientConfig, fn func(context.Context) (T, error)) (*Operation[T], error) {
	if cfg.Component == "" {
		return nil, ErrMissingComponent
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = faults.DefaultMaxRetries
	}
	if cfg.Policy == nil {
		cfg.Policy = resilience.NewExponentialBackoff(resilience.ExponentialBackoffConfig{
			MaxRetries: cfg.MaxRetries,
		})
	}
	logger := observe.OrNop(cfg.Logger)

	opts := []resilience.ExecutorOption{
		resilience.WithRetry(resilience.NewRetry(cfg.Policy, resilience.WithRetryLogger(logger))),
	}
	if cfg.CircuitBreaker != nil {
		opts = append(opts, resilience.WithCircuitBreaker(h.RegisterCircuitBreaker(cfg.Component, *cfg.CircuitBreaker)))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, resilience.WithTimeoutConfig(resilience.NewTimeout(resilience.TimeoutConfig{
			Timeout:   cfg.Timeout,
			Operation: cfg.Operation,
		})))
	}
	if cfg.Fallback != nil {
		h.RegisterFallbackStrategy(cfg.Component, cfg.Fallback)
	}

	return &Operation[T]{
		handler:  h,
		config:   cfg,
		fn:       fn,
		executor: resilience.NewExecutor(opts...),
	}, nil
}

// Do runs the function. On a terminal failure the error is handed to the
// ErrorHandler and the resolution is returned alongside the result:
//
//   - fallback and degrade_gracefully yield the resolution value when it is
//     a T, and the zero T otherwise
//   - skip yields the zero T and no error
//   - retry yields the original error, since this call's retries are spent
//   - fail_fast and escalate yield the handler's error
//
// Cancellation of ctx is returned as is without involving the handler.
func (o *Operation[T]) Do(ctx context.Context) (T, Resolution, error) {
	var zero T

	v, err := resilience.Call(ctx, o.executor, o.fn)
	if err == nil {
		return v, Resolution{}, nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return zero, Resolution{}, err
	}

	return Recover[T](ctx, o.handler, o.tag(err), map[string]any{
		"function": o.config.Component,
	})
}

// Recover hands err to h and converts the resolution into a T as described
// for Operation.Do.
func Recover[T any](ctx context.Context, h *ErrorHandler, err error, data map[string]any) (T, Resolution, error) {
	var zero T

	res, herr := h.HandleError(ctx, err, data)
	if herr != nil {
		return zero, res, herr
	}

	switch res.Action {
	case faults.ActionRetry:
		return zero, res, err
	case faults.ActionFallback, faults.ActionDegradeGracefully:
		if res.Value == nil {
			return zero, res, nil
		}
		if tv, ok := res.Value.(T); ok {
			return tv, res, nil
		}
		if res.Action == faults.ActionFallback {
			return zero, res, fmt.Errorf("%w: got %T for %s", ErrFallbackType, res.Value, faults.Classify(err).Component)
		}
		return zero, res, nil
	default:
		return zero, res, nil
	}
}

// Call runs the function and discards the resolution.
func (o *Operation[T]) Call(ctx context.Context) (T, error) {
	v, _, err := o.Do(ctx)
	return v, err
}

// tag attaches the operation's component to errors that carry no taxonomy.
func (o *Operation[T]) tag(err error) error {
	if _, ok := faults.As(err); ok {
		return err
	}
	ec := faults.Classify(err)
	return faults.Wrap(err, fmt.Sprintf("%s failed", o.config.Component),
		faults.WithCategory(ec.Category),
		faults.WithComponent(o.config.Component),
		faults.WithOperation(o.config.Operation),
	)
}

// Resilient returns fn protected as described by NewOperation. It panics if
// cfg.Component is empty.
func Resilient[T any](h *ErrorHandler, cfg ResilientConfig, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	op, err := NewOperation(h, cfg, fn)
	if err != nil {
		panic(err)
	}
	return op.Call
}
