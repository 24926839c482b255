package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/resilience"
)

func ExampleCircuitBreaker_Execute() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "llm_client",
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
		OnStateChange: func(name string, from, to resilience.State) {
			fmt.Printf("%s: %s -> %s\n", name, from, to)
		},
	})

	ctx := context.Background()
	upstream := errors.New("503 service unavailable")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error { return upstream })
	}

	err := cb.Execute(ctx, func(ctx context.Context) error { return nil })
	fmt.Println(errors.Is(err, resilience.ErrCircuitOpen))
	// Output:
	// llm_client: closed -> open
	// true
}

func ExampleLinearBackoff() {
	policy := resilience.NewLinearBackoff(resilience.LinearBackoffConfig{
		MaxRetries: 3,
		Delay:      100 * time.Millisecond,
	})

	for attempt := 0; attempt < 3; attempt++ {
		fmt.Println(policy.Delay(attempt))
	}
	fmt.Println(policy.ShouldRetry(3, errors.New("x")))
	// Output:
	// 100ms
	// 200ms
	// 300ms
	// false
}

func ExampleRetry_Execute() {
	r := resilience.NewRetry(resilience.NewLinearBackoff(resilience.LinearBackoffConfig{
		MaxRetries: 5,
		Delay:      time.Millisecond,
	}))

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return faults.DataValidation("nps_score", 11, "score must be 0-10")
	})

	fmt.Println(attempts, faults.IsValidation(err))
	// Output:
	// 1 true
}

func ExampleSemaphoreManager() {
	sems := resilience.NewSemaphoreManager()
	sems.Register(resilience.SemaphoreConfig{Name: "agents", MaxConcurrent: 2})

	ctx := context.Background()
	_ = sems.Execute(ctx, "agents", func(ctx context.Context) error { return nil })
	_ = sems.Execute(ctx, "agents", func(ctx context.Context) error { return errors.New("agent failed") })

	m, _ := sems.Metrics("agents")
	fmt.Printf("acquired=%d released=%d failures=%d\n", m.Acquired, m.Released, m.Failures)
	// Output:
	// acquired=2 released=2 failures=1
}

func ExampleCall() {
	executor := resilience.NewExecutor(
		resilience.WithRetryPolicy(resilience.NewLinearBackoff(resilience.LinearBackoffConfig{
			MaxRetries: 2,
			Delay:      time.Millisecond,
		})),
		resilience.WithTimeout(time.Second),
	)

	calls := 0
	summary, err := resilience.Call(context.Background(), executor, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "NPS 42", nil
	})

	fmt.Println(summary, err, calls)
	// Output:
	// NPS 42 <nil> 2
}
