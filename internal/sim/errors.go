package sim

import (
	"errors"
	"fmt"
)

// Domain errors for closed-loop runs.
var (
	// ErrBadTimestep indicates a non-positive control tick.
	ErrBadTimestep = errors.New("sim: timestep must be positive")

	// ErrInvalidState indicates the plant state became NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")
)

// RunError wraps an error with the tick it occurred on.
type RunError struct {
	Step    int
	T       float64
	Wrapped error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.T, e.Wrapped)
}

func (e *RunError) Unwrap() error {
	return e.Wrapped
}
