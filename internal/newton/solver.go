package newton

import (
	"context"
	"fmt"

	"github.com/san-kum/vnrsolve/internal/buffer"
)

// DefaultMaxIterations caps the number of iterations of a solve.
const DefaultMaxIterations = 40

// Function evaluates the residual f and its derivative df at x. The value
// implementing Function carries whatever context the residual needs.
type Function interface {
	Evaluate(x, f, df *buffer.Buffer) error
}

// FunctionFunc adapts a plain function to Function.
type FunctionFunc func(x, f, df *buffer.Buffer) error

func (fn FunctionFunc) Evaluate(x, f, df *buffer.Buffer) error { return fn(x, f, df) }

type Status int

const (
	Running Status = iota
	Converged
	MaxIterExceeded
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case MaxIterExceeded:
		return "max-iter-exceeded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result summarizes a solve. Iterations counts residual evaluations.
type Result struct {
	Status     Status
	Iterations int
	Converged  int
}

// Iteration is what observers see after each convergence check. The
// buffers are the solver's working storage and are only valid during the
// callback.
type Iteration struct {
	Index     int
	X         *buffer.Buffer
	F         *buffer.Buffer
	Delta     *buffer.Buffer
	Converged []bool
}

type Observer interface {
	OnIteration(it Iteration)
}

type Solver struct {
	increment Increment
	criterion Criterion
	maxIter   int
	pool      *buffer.Pool
	observers []Observer
}

type Option func(*Solver)

func WithMaxIterations(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxIter = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Solver) { s.observers = append(s.observers, o) }
}

// WithPool shares scratch storage with other solvers.
func WithPool(p *buffer.Pool) Option {
	return func(s *Solver) {
		if p != nil {
			s.pool = p
		}
	}
}

// New builds a solver. A nil increment or criterion selects Classical and
// DefaultRelativeGap.
func New(increment Increment, criterion Criterion, opts ...Option) *Solver {
	if increment == nil {
		increment = Classical{}
	}
	if criterion == nil {
		criterion = DefaultRelativeGap
	}
	s := &Solver{
		increment: increment,
		criterion: criterion,
		maxIter:   DefaultMaxIterations,
		pool:      buffer.NewPool(),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Solver) Increment() Increment { return s.increment }
func (s *Solver) Criterion() Criterion { return s.criterion }
func (s *Solver) MaxIterations() int   { return s.maxIter }

// Solve finds, cell by cell, a root of fn starting from xInit and writes it
// into xSol. xInit is never modified.
//
// When the iteration cap is reached the error is a *ConvergenceError and
// xSol holds the last iterate: converged cells keep their root, the others
// keep the value reached by their last step.
func (s *Solver) Solve(ctx context.Context, fn Function, xInit, xSol *buffer.Buffer) (Result, error) {
	res := Result{Status: Running}
	if fn == nil {
		return res, ErrNilFunction
	}
	if !xInit.Valid() || !xSol.Valid() {
		return res, fmt.Errorf("%w: x_ini %v, x_sol %v", ErrInvalidBuffer, xInit, xSol)
	}
	if xInit.Len() != xSol.Len() {
		return res, fmt.Errorf("%w: x_ini %s (%d) vs x_sol %s (%d)",
			ErrSizeMismatch, xInit.Label(), xInit.Len(), xSol.Label(), xSol.Len())
	}

	n := xInit.Len()
	f, err := s.pool.Get(n, "F_k")
	if err != nil {
		return res, err
	}
	defer s.pool.Put(f)
	df, err := s.pool.Get(n, "dF_k")
	if err != nil {
		return res, err
	}
	defer s.pool.Put(df)
	dx, err := s.pool.Get(n, "delta_x_k")
	if err != nil {
		return res, err
	}
	defer s.pool.Put(dx)

	converged := make([]bool, n)

	if err := buffer.Copy(xSol, xInit); err != nil {
		return res, fmt.Errorf("newton: initialization: %w", err)
	}
	x := xSol.Data()
	step := dx.Data()

	for iter := 0; ; iter++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("newton: interrupted before iteration %d: %w", iter, err)
		}

		if err := fn.Evaluate(xSol, f, df); err != nil {
			return res, &IterationError{Iteration: iter, Stage: "evaluate", Wrapped: err}
		}
		if err := s.increment.Compute(xSol, f, df, dx); err != nil {
			return res, &IterationError{Iteration: iter, Stage: s.increment.Name(), Wrapped: err}
		}
		for i := range x {
			if !converged[i] {
				x[i] += step[i]
			}
		}
		all, err := s.criterion.Check(dx, f, converged)
		if err != nil {
			return res, &IterationError{Iteration: iter, Stage: s.criterion.Name(), Wrapped: err}
		}

		res.Iterations = iter + 1
		for _, o := range s.observers {
			o.OnIteration(Iteration{Index: iter, X: xSol, F: f, Delta: dx, Converged: converged})
		}

		if all {
			res.Status = Converged
			res.Converged = n
			return res, nil
		}
		if iter == s.maxIter {
			res.Status = MaxIterExceeded
			cerr := &ConvergenceError{Iterations: res.Iterations}
			for i, c := range converged {
				if c {
					res.Converged++
				} else {
					cerr.Unconverged = append(cerr.Unconverged, i)
				}
			}
			return res, cerr
		}
	}
}
