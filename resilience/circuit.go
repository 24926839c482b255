package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonwraymond/agentops/faults"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls pass through and failures are counted.
	StateClosed State = iota
	// StateOpen means calls are rejected without running.
	StateOpen
	// StateHalfOpen means calls run as probes of the dependency.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the protected component in errors and snapshots.
	Name string

	// FailureThreshold is the failure count that opens the circuit.
	// Default: 5
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before probing.
	// Default: 60 seconds
	RecoveryTimeout time.Duration

	// SuccessThreshold is the number of half-open successes that close
	// the circuit.
	// Default: 3
	SuccessThreshold int

	// OnStateChange is called, with the breaker's lock held, on every
	// transition.
	OnStateChange func(name string, from, to State)

	// IsFailure selects the errors that count as failures. Errors it
	// rejects pass through without touching the counters.
	// Default: every non-nil error except context cancellation.
	IsFailure func(err error) bool
}

// CircuitBreaker guards calls to a failing dependency. It is safe for
// concurrent use; the OPEN to HALF_OPEN transition happens lazily on the
// first observation after RecoveryTimeout.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	now         func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 3
	}
	if config.IsFailure == nil {
		config.IsFailure = defaultIsFailure
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Name returns the configured name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Config returns the effective configuration.
func (cb *CircuitBreaker) Config() CircuitBreakerConfig {
	return cb.config
}

// Execute runs the operation through the circuit breaker. While the circuit
// is open it returns a *faults.Error wrapping ErrCircuitOpen without calling
// op.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := op(ctx)
	cb.afterRequest(err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Reset forces the circuit closed and clears the counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.notifyLocked(oldState)
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.currentStateLocked() == StateOpen {
		return faults.CircuitOpen(cb.config.Name, faults.WithCause(ErrCircuitOpen))
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state

	if err == nil {
		cb.onSuccessLocked()
	} else if cb.config.IsFailure(err) {
		cb.onFailureLocked()
	}

	cb.notifyLocked(oldState)
}

func (cb *CircuitBreaker) onSuccessLocked() {
	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failures = 0
			cb.successes = 0
		}
	case StateClosed:
		// Successes decay the failure count by one.
		if cb.failures > 0 {
			cb.failures--
		}
	}
}

func (cb *CircuitBreaker) onFailureLocked() {
	cb.lastFailure = cb.now()

	switch cb.state {
	case StateHalfOpen:
		cb.state = StateOpen
		cb.successes = 0
	case StateClosed:
		cb.failures++
		cb.successes = 0
		if cb.failures >= cb.config.FailureThreshold {
			cb.state = StateOpen
		}
	case StateOpen:
		// A call admitted before the circuit opened finished late.
	}
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && cb.now().Sub(cb.lastFailure) >= cb.config.RecoveryTimeout {
		cb.state = StateHalfOpen
		cb.successes = 0
		cb.notifyLocked(StateOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) notifyLocked(from State) {
	if from != cb.state && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, cb.state)
	}
}

// Snapshot returns a read-only view of the breaker.
func (cb *CircuitBreaker) Snapshot() CircuitBreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerSnapshot{
		Name:             cb.config.Name,
		State:            cb.currentStateLocked(),
		FailureCount:     cb.failures,
		SuccessCount:     cb.successes,
		LastFailureTime:  cb.lastFailure,
		FailureThreshold: cb.config.FailureThreshold,
		SuccessThreshold: cb.config.SuccessThreshold,
		RecoveryTimeout:  cb.config.RecoveryTimeout,
	}
}

// CircuitBreakerSnapshot contains circuit breaker state and counters.
type CircuitBreakerSnapshot struct {
	Name             string        `json:"name"`
	State            State         `json:"state"`
	FailureCount     int           `json:"failure_count"`
	SuccessCount     int           `json:"success_count"`
	LastFailureTime  time.Time     `json:"last_failure_time"`
	FailureThreshold int           `json:"failure_threshold"`
	SuccessThreshold int           `json:"success_threshold"`
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`
}
