package config

import (
	"github.com/jonwraymond/agentops/cache"
	"github.com/jonwraymond/agentops/observe"
	"github.com/jonwraymond/agentops/parallel"
	"github.com/jonwraymond/agentops/resilience"
)

// Resilience converts the pool declaration.
func (s SemaphoreConfig) Resilience() resilience.SemaphoreConfig {
	return resilience.SemaphoreConfig{
		Name:           s.Name,
		MaxConcurrent:  s.MaxConcurrent,
		AcquireTimeout: s.AcquireTimeout,
	}
}

// Resilience converts the breaker declaration. Callbacks are left for the
// caller to set.
func (b BreakerConfig) Resilience() resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Name:             b.Component,
		FailureThreshold: b.FailureThreshold,
		RecoveryTimeout:  b.RecoveryTimeout,
		SuccessThreshold: b.SuccessThreshold,
	}
}

// Resilience converts the limiter declaration.
func (r RateLimitConfig) Resilience() resilience.RateLimiterConfig {
	return resilience.RateLimiterConfig{
		Rate:    r.Rate,
		Burst:   r.Burst,
		MaxWait: r.MaxWait,
	}
}

// Policy builds the retry policy described by r.
func (r RetryConfig) Policy() resilience.RetryPolicy {
	if r.Strategy == "linear" {
		return resilience.NewLinearBackoff(resilience.LinearBackoffConfig{
			MaxRetries: retries(r.MaxRetries),
			Delay:      r.BaseDelay,
		})
	}
	return resilience.NewExponentialBackoff(resilience.ExponentialBackoffConfig{
		MaxRetries:    retries(r.MaxRetries),
		BaseDelay:     r.BaseDelay,
		MaxDelay:      r.MaxDelay,
		Multiplier:    r.Multiplier,
		DisableJitter: !r.Jitter,
	})
}

// retries maps an explicit 0 to the negative value the backoff
// constructors read as "no retries".
func retries(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

// Parallel converts the batch settings.
func (b BatchConfig) Parallel(logger observe.Logger) parallel.BatchConfig {
	return parallel.BatchConfig{
		BatchSize:            b.Size,
		MaxConcurrentBatches: b.MaxConcurrentBatches,
		Logger:               logger,
	}
}

// Policy converts the cache settings. A disabled cache yields
// cache.NoCachePolicy.
func (c CacheConfig) Policy() cache.Policy {
	if !c.Enabled {
		return cache.NoCachePolicy()
	}
	return cache.Policy{DefaultTTL: c.TTL, MaxTTL: c.MaxTTL, NamespaceTTL: c.ProviderTTL}
}

// Memory converts the cache settings for an in-memory cache.
func (c CacheConfig) Memory() cache.MemoryConfig {
	return cache.MemoryConfig{MaxEntries: c.MaxEntries}
}

// Semaphore returns the pool declared under name.
func (c *Config) Semaphore(name string) (SemaphoreConfig, bool) {
	for _, s := range c.Semaphores {
		if s.Name == name {
			return s, true
		}
	}
	return SemaphoreConfig{}, false
}

// RateLimit returns the limiter declared under name.
func (c *Config) RateLimit(name string) (RateLimitConfig, bool) {
	for _, r := range c.RateLimits {
		if r.Name == name {
			return r, true
		}
	}
	return RateLimitConfig{}, false
}
