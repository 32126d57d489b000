package labor

import "errors"

var (
	// ErrInvalidWindow is returned when the window starts after it ends.
	ErrInvalidWindow = errors.New("invalid window")
	// ErrInvalidPolicy is returned for an unknown ordering policy.
	ErrInvalidPolicy = errors.New("invalid policy")
	// ErrMalformedTask is returned for a task that completes before it starts.
	ErrMalformedTask = errors.New("malformed task")
)
