package resilience

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of tokens added per second.
	// Default: 10
	Rate float64

	// Burst is the bucket capacity; a full bucket admits Burst calls at once.
	// Default: 1
	Burst int

	// MaxWait bounds how long Acquire may block. Zero waits as long as the
	// context allows.
	MaxWait time.Duration
}

// RateLimiter is a token bucket. The bucket starts full and refills
// continuously at Rate tokens per second.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter atomic.Pointer[rate.Limiter]
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	// Apply defaults
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}

	rl := &RateLimiter{config: config}
	rl.limiter.Store(rl.newLimiter())
	return rl
}

func (rl *RateLimiter) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst)
}

// Config returns the effective configuration.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}

// Allow reports whether one token is available now, consuming it if so.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN reports whether n tokens are available now, consuming them if so.
func (rl *RateLimiter) AllowN(n int) bool {
	return rl.limiter.Load().AllowN(time.Now(), n)
}

// Acquire blocks until n tokens are available. Requests larger than Burst,
// and waits that would exceed MaxWait, fail with ErrRateLimitExceeded.
// Cancellation of ctx is returned as ctx.Err().
func (rl *RateLimiter) Acquire(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if n > rl.config.Burst {
		return fmt.Errorf("%w: requested %d tokens, burst is %d", ErrRateLimitExceeded, n, rl.config.Burst)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	waitCtx := ctx
	if rl.config.MaxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, rl.config.MaxWait)
		defer cancel()
	}

	if err := rl.limiter.Load().WaitN(waitCtx, n); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrRateLimitExceeded, err)
	}
	return nil
}

// Wait blocks until one token is available.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.Acquire(ctx, 1)
}

// Execute waits for a token and then runs op.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := rl.Acquire(ctx, 1); err != nil {
		return err
	}
	return op(ctx)
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	return rl.limiter.Load().Tokens()
}

// Reset refills the bucket to capacity.
func (rl *RateLimiter) Reset() {
	rl.limiter.Store(rl.newLimiter())
}
