package resilience

import "errors"

// Sentinel errors for resilience operations. The typed errors returned by
// this package wrap them, so errors.Is works on every result.
var (
	// ErrCircuitOpen is wrapped by the error returned while a circuit is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded is returned when a rate limit cannot be satisfied.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrSemaphoreNotRegistered is wrapped when acquiring an unknown pool.
	ErrSemaphoreNotRegistered = errors.New("resilience: semaphore not registered")

	// ErrAcquireTimeout is wrapped when a semaphore slot is not granted in time.
	ErrAcquireTimeout = errors.New("resilience: semaphore acquire timed out")

	// ErrTimeout is wrapped when an operation exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)
