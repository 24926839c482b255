package resilience

import (
	"context"
	"testing"
	"time"
)

// BenchmarkCircuitBreaker_Execute_Closed measures happy path execution.
func BenchmarkCircuitBreaker_Execute_Closed(b *testing.B) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 100,
		RecoveryTimeout:  time.Minute,
	})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, succeed)
	}
}

// BenchmarkCircuitBreaker_Execute_Open measures fast rejection.
func BenchmarkCircuitBreaker_Execute_Open(b *testing.B) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	ctx := context.Background()
	_ = cb.Execute(ctx, fail)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, succeed)
	}
}

// BenchmarkCircuitBreaker_Concurrent measures lock contention.
func BenchmarkCircuitBreaker_Concurrent(b *testing.B) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 100})
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = cb.Execute(ctx, succeed)
		}
	})
}

// BenchmarkExponentialBackoff_Delay measures delay computation.
func BenchmarkExponentialBackoff_Delay(b *testing.B) {
	p := NewExponentialBackoff(ExponentialBackoffConfig{})
	for i := 0; i < b.N; i++ {
		_ = p.Delay(i % 8)
	}
}

// BenchmarkRateLimiter_Allow measures a non-blocking token check.
func BenchmarkRateLimiter_Allow(b *testing.B) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1e9, Burst: 1 << 20})
	for i := 0; i < b.N; i++ {
		_ = rl.Allow()
	}
}

// BenchmarkSemaphoreManager_Execute measures an uncontended slot.
func BenchmarkSemaphoreManager_Execute(b *testing.B) {
	m := NewSemaphoreManager()
	m.Register(SemaphoreConfig{Name: "bench", MaxConcurrent: 8})
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Execute(ctx, "bench", succeed)
	}
}

// BenchmarkSemaphoreManager_Parallel measures contended slots.
func BenchmarkSemaphoreManager_Parallel(b *testing.B) {
	m := NewSemaphoreManager()
	m.Register(SemaphoreConfig{Name: "bench", MaxConcurrent: 4})
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = m.Execute(ctx, "bench", succeed)
		}
	})
}

// BenchmarkExecutor_Full measures the composed chain.
func BenchmarkExecutor_Full(b *testing.B) {
	m := NewSemaphoreManager()
	m.Register(SemaphoreConfig{Name: "bench", MaxConcurrent: 8})
	e := NewExecutor(
		WithRetryPolicy(fastPolicy(1)),
		WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{})),
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{Rate: 1e9, Burst: 1 << 20})),
		WithSemaphore(m, "bench"),
		WithTimeout(time.Second),
	)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Execute(ctx, succeed)
	}
}
