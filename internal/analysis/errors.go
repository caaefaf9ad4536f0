package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a NaN or Inf entry in a state vector.
	ErrInvalidState = errors.New("analysis: invalid state (NaN or Inf detected)")

	// ErrInvalidTime indicates a request to advance to an earlier time.
	ErrInvalidTime = errors.New("analysis: cannot advance backwards in time")

	// ErrInvalidConfig indicates a non-positive step or a negative accuracy.
	ErrInvalidConfig = errors.New("analysis: invalid simulator configuration")

	// ErrStepTooSmall indicates error control shrank the step below the minimum.
	ErrStepTooSmall = errors.New("analysis: adaptive step below minimum")
)

// SimulationError wraps an error with the step and time it occurred at.
type SimulationError struct {
	Step    int
	Time    float64
	State   []float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
