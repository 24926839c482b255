// Package resilience provides the concurrency and failure-handling
// primitives used around agent and LLM calls.
//
// # Patterns
//
//   - Circuit Breaker: stops calling a failing dependency once
//     FailureThreshold failures accumulate, probes it again after
//     RecoveryTimeout, and closes after SuccessThreshold probe successes.
//
//   - Retry: repeats failed operations according to a RetryPolicy
//     (ExponentialBackoff with jitter, or LinearBackoff). Validation,
//     configuration and critical errors are never retried, nor is
//     cancellation.
//
//   - Rate Limiter: a token bucket that admits bursts and then paces calls.
//
//   - Semaphore Manager: named, bounded concurrency pools with counters for
//     acquisitions, releases, timeouts and failures.
//
//   - Timeout: bounds an operation and reports expiry as a typed error.
//
// Every pattern implements [Runner]; [Call] and [Wrap] adapt value-returning
// functions, so decorating a function and calling through a runner behave
// identically.
//
// # Usage
//
//	sems := resilience.NewSemaphoreManager()
//	sems.Register(resilience.SemaphoreConfig{Name: "llm_calls", MaxConcurrent: 4})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRetryPolicy(resilience.NewExponentialBackoff(resilience.ExponentialBackoffConfig{
//	        MaxRetries: 3,
//	        BaseDelay:  500 * time.Millisecond,
//	    })),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        Name:             "llm_client",
//	        FailureThreshold: 5,
//	        RecoveryTimeout:  time.Minute,
//	    })),
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 5, Burst: 5})),
//	    resilience.WithSemaphore(sems, "llm_calls"),
//	    resilience.WithTimeout(30*time.Second),
//	)
//
//	summary, err := resilience.Call(ctx, executor, func(ctx context.Context) (string, error) {
//	    return summarize(ctx, comments)
//	})
//
// Errors returned by the primitives are *faults.Error values wrapping this
// package's sentinels: errors.Is(err, resilience.ErrCircuitOpen) and
// faults.CategoryOf(err) both work.
package resilience
