package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/observe"
)

// RetryPolicy decides whether and when a failed attempt is retried.
// Attempts are numbered from zero.
type RetryPolicy interface {
	ShouldRetry(attempt int, err error) bool
	Delay(attempt int) time.Duration
}

// ExponentialBackoffConfig configures ExponentialBackoff.
type ExponentialBackoffConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Negative values disable retries.
	// Default: 3
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	// Default: 1 second
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 60 seconds
	MaxDelay time.Duration

	// Multiplier is the growth factor per attempt.
	// Default: 2.0
	Multiplier float64

	// DisableJitter turns off the random [0.5, 1.0) delay multiplier.
	DisableJitter bool
}

// ExponentialBackoff retries with exponentially growing, jittered delays.
// Validation, configuration and critical errors are never retried, nor is
// cancellation.
type ExponentialBackoff struct {
	config ExponentialBackoffConfig
}

// NewExponentialBackoff creates an exponential retry policy.
func NewExponentialBackoff(config ExponentialBackoffConfig) *ExponentialBackoff {
	// Apply defaults
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	} else if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 60 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	return &ExponentialBackoff{config: config}
}

// ShouldRetry implements RetryPolicy.
func (p *ExponentialBackoff) ShouldRetry(attempt int, err error) bool {
	return attempt < p.config.MaxRetries && retryable(err)
}

// Delay implements RetryPolicy.
func (p *ExponentialBackoff) Delay(attempt int) time.Duration {
	d := float64(p.config.BaseDelay) * math.Pow(p.config.Multiplier, float64(attempt))
	if d > float64(p.config.MaxDelay) {
		d = float64(p.config.MaxDelay)
	}
	if !p.config.DisableJitter {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d *= 0.5 + rand.Float64()*0.5
	}
	return time.Duration(d)
}

// Config returns the effective configuration.
func (p *ExponentialBackoff) Config() ExponentialBackoffConfig {
	return p.config
}

// LinearBackoffConfig configures LinearBackoff.
type LinearBackoffConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Negative values disable retries.
	// Default: 3
	MaxRetries int

	// Delay is multiplied by the attempt number plus one.
	// Default: 1 second
	Delay time.Duration
}

// LinearBackoff retries with delays growing by a fixed step.
type LinearBackoff struct {
	config LinearBackoffConfig
}

// NewLinearBackoff creates a linear retry policy.
func NewLinearBackoff(config LinearBackoffConfig) *LinearBackoff {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	} else if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.Delay <= 0 {
		config.Delay = time.Second
	}
	return &LinearBackoff{config: config}
}

// ShouldRetry implements RetryPolicy.
func (p *LinearBackoff) ShouldRetry(attempt int, err error) bool {
	return attempt < p.config.MaxRetries && retryable(err)
}

// Delay implements RetryPolicy.
func (p *LinearBackoff) Delay(attempt int) time.Duration {
	return p.config.Delay * time.Duration(attempt+1)
}

func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if faults.IsValidation(err) || faults.IsCritical(err) {
		return false
	}
	return faults.CategoryOf(err) != faults.CategoryConfiguration
}

// RetryOption configures a Retry.
type RetryOption func(*Retry)

// OnRetry registers a callback invoked before each backoff sleep.
func OnRetry(fn func(attempt int, err error, delay time.Duration)) RetryOption {
	return func(r *Retry) { r.onRetry = fn }
}

// WithRetryLogger logs every scheduled retry at warn level.
func WithRetryLogger(logger observe.Logger) RetryOption {
	return func(r *Retry) { r.logger = logger }
}

// Retry runs an operation until it succeeds or its policy gives up.
type Retry struct {
	policy  RetryPolicy
	onRetry func(attempt int, err error, delay time.Duration)
	logger  observe.Logger
}

// NewRetry creates a retry runner. A nil policy means ExponentialBackoff
// with default settings.
func NewRetry(policy RetryPolicy, opts ...RetryOption) *Retry {
	if policy == nil {
		policy = NewExponentialBackoff(ExponentialBackoffConfig{})
	}
	r := &Retry{policy: policy}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the retry policy.
func (r *Retry) Policy() RetryPolicy {
	return r.policy
}

// Execute runs op, retrying per the policy. When retries are exhausted the
// last error is returned unchanged.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil || !r.policy.ShouldRetry(attempt, err) {
			return err
		}

		delay := r.policy.Delay(attempt)

		if r.onRetry != nil {
			r.onRetry(attempt, err, delay)
		}
		if r.logger != nil {
			r.logger.Warn(ctx, "retrying after failure",
				observe.Field{Key: "attempt", Value: attempt + 1},
				observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// withHook returns a copy of r that also calls hook before each retry.
func (r *Retry) withHook(hook func(attempt int)) *Retry {
	c := *r
	prev := r.onRetry
	c.onRetry = func(attempt int, err error, delay time.Duration) {
		hook(attempt)
		if prev != nil {
			prev(attempt, err, delay)
		}
	}
	return &c
}
