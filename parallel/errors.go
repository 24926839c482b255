package parallel

import "errors"

var (
	// ErrNoFunctions is returned by Race when called without functions.
	ErrNoFunctions = errors.New("parallel: no functions to run")

	// ErrGatherTimeout is the cause of the timeout error returned by
	// GatherWithTimeout.
	ErrGatherTimeout = errors.New("parallel: gather timed out")
)
