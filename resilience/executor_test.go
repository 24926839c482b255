package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jonwraymond/agentops/observe"
)

func TestExecutor_Empty(t *testing.T) {
	e := NewExecutor()
	if err := e.Execute(context.Background(), succeed); err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if err := e.Execute(context.Background(), fail); err != errBoom {
		t.Errorf("Execute() error = %v, want errBoom", err)
	}
}

func TestExecutor_RetryWrapsBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "flaky", FailureThreshold: 2, RecoveryTimeout: time.Hour})
	e := NewExecutor(
		WithRetryPolicy(fastPolicy(4)),
		WithCircuitBreaker(cb),
	)

	var calls atomic.Int32
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		calls.Add(1)
		return errBoom
	})

	// Each attempt passes through the breaker: two real calls open it and the
	// remaining retries are rejected without running.
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen after exhaustion", err)
	}
	if e.CircuitBreaker() != cb {
		t.Error("CircuitBreaker() did not return the configured breaker")
	}
}

func TestExecutor_RetryThenSucceed(t *testing.T) {
	e := NewExecutor(
		WithRetryPolicy(fastPolicy(3)),
		WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 10})),
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{Rate: 1000, Burst: 10})),
		WithTimeout(time.Second),
	)

	var calls atomic.Int32
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			return errBoom
		}
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestExecutor_TimeoutPerAttempt(t *testing.T) {
	e := NewExecutor(
		WithRetryPolicy(fastPolicy(1)),
		WithTimeoutConfig(NewTimeout(TimeoutConfig{Timeout: 10 * time.Millisecond, Operation: "slow"})),
	)

	var calls atomic.Int32
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		calls.Add(1)
		<-ctx.Done()
		return ctx.Err()
	})

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (timeouts are retried)", calls.Load())
	}
}

func TestExecutor_Semaphore(t *testing.T) {
	m := NewSemaphoreManager()
	m.Register(SemaphoreConfig{Name: "llm_calls", MaxConcurrent: 1})
	e := NewExecutor(WithSemaphore(m, "llm_calls"))

	_ = e.Execute(context.Background(), succeed)
	_ = e.Execute(context.Background(), fail)

	got, _ := m.Metrics("llm_calls")
	if got.Acquired != 2 || got.Failures != 1 {
		t.Errorf("Metrics() = %+v, want 2 acquired, 1 failure", got)
	}

	bad := NewExecutor(WithSemaphore(m, "unknown"))
	if err := bad.Execute(context.Background(), succeed); !errors.Is(err, ErrSemaphoreNotRegistered) {
		t.Errorf("error = %v, want ErrSemaphoreNotRegistered", err)
	}
}

func TestExecutor_Observer(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := observe.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	mw := observe.NewMiddleware(nil, metrics, nil)

	e := NewExecutor(
		WithRetryPolicy(fastPolicy(2)),
		WithObserver(mw, observe.OperationMeta{Component: "llm_client", Operation: "generate"}),
	)
	_ = e.Execute(context.Background(), fail)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counts[m.Name] += dp.Value
				}
			}
		}
	}
	if counts["agentops.op.total"] != 3 {
		t.Errorf("op.total = %d, want 3 attempts", counts["agentops.op.total"])
	}
	if counts["agentops.op.retries"] != 2 {
		t.Errorf("op.retries = %d, want 2", counts["agentops.op.retries"])
	}
}

func TestCall_ThroughExecutor(t *testing.T) {
	e := NewExecutor(WithRetryPolicy(fastPolicy(2)))
	var calls atomic.Int32

	got, err := Call(context.Background(), e, func(ctx context.Context) (string, error) {
		if calls.Add(1) < 2 {
			return "", errBoom
		}
		return "promoters: 62%", nil
	})
	if err != nil || got != "promoters: 62%" {
		t.Errorf("Call() = %q, %v", got, err)
	}
}
