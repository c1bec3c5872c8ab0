package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrCoincident indicates two bodies at the same position with no softening.
	ErrCoincident = errors.New("dynamo: coincident bodies (zero separation)")

	// ErrInvalidMass indicates a body with zero or negative mass.
	ErrInvalidMass = errors.New("dynamo: body mass must be positive")

	// ErrDuplicateName indicates two bodies sharing a label.
	ErrDuplicateName = errors.New("dynamo: duplicate body name")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates sequences that must be index-aligned are not.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between bodies and trajectories")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.0fs): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
