package newton

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBuffer indicates a nil, cleared or empty operand.
	ErrInvalidBuffer = errors.New("newton: invalid buffer")

	// ErrSizeMismatch indicates operands of different sizes.
	ErrSizeMismatch = errors.New("newton: size mismatch")

	// ErrNotConverged indicates the iteration cap was reached.
	ErrNotConverged = errors.New("newton: maximum iterations reached without convergence")

	// ErrNilFunction indicates Solve was called without a residual function.
	ErrNilFunction = errors.New("newton: nil residual function")

	// ErrUnknownIncrement indicates a name absent from the increment registry.
	ErrUnknownIncrement = errors.New("newton: unknown increment method")
)

// ConvergenceError reports a solve that hit the iteration cap.
type ConvergenceError struct {
	Iterations  int
	Unconverged []int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("newton: %d cell(s) not converged after %d iterations", len(e.Unconverged), e.Iterations)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrNotConverged
}

// IterationError wraps a failure of the function, increment or criterion
// with the iteration at which it happened.
type IterationError struct {
	Iteration int
	Stage     string
	Wrapped   error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("newton: iteration %d: %s: %v", e.Iteration, e.Stage, e.Wrapped)
}

func (e *IterationError) Unwrap() error {
	return e.Wrapped
}
