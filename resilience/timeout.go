package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/agentops/faults"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 30 seconds
	Timeout time.Duration

	// Message is the text of the timeout error.
	// Default: "operation timed out"
	Message string

	// Operation names the guarded operation in the timeout error.
	Operation string
}

// Timeout bounds the duration of operations.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	// Apply defaults
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Message == "" {
		config.Message = "operation timed out"
	}

	return &Timeout{config: config}
}

// Execute runs op with a deadline. When the deadline passes first it returns
// a *faults.Error of category timeout_error wrapping ErrTimeout; op keeps
// running in the background until it observes its cancelled context.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == context.DeadlineExceeded {
			return t.timeoutError()
		}
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return t.timeoutError()
		}
		return ctx.Err()
	}
}

func (t *Timeout) timeoutError() error {
	return faults.Timeout(t.config.Operation, t.config.Message,
		faults.WithCause(ErrTimeout),
		faults.WithContextData(map[string]any{"timeout_seconds": t.config.Timeout.Seconds()}),
	)
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// RunWithTimeout runs op with a deadline of d, reporting expiry as a typed
// timeout error carrying message and operation.
func RunWithTimeout(ctx context.Context, d time.Duration, message, operation string, op func(context.Context) error) error {
	t := NewTimeout(TimeoutConfig{Timeout: d, Message: message, Operation: operation})
	return t.Execute(ctx, op)
}
