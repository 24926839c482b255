package recovery

import "errors"

var (
	// ErrFallbackType is returned when a fallback value does not match the
	// result type of the protected function.
	ErrFallbackType = errors.New("recovery: fallback value has wrong type")

	// ErrMissingComponent is returned when an Operation has no component.
	ErrMissingComponent = errors.New("recovery: component is required")
)
