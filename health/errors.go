package health

import "errors"

// ErrCheckTimeout is reported when a checker outlives the aggregator timeout.
var ErrCheckTimeout = errors.New("health: check timeout")

// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
var ErrCheckerNotFound = errors.New("health: checker not found")
