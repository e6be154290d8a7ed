package newton

import (
	"fmt"

	"github.com/san-kum/vnrsolve/internal/buffer"
)

// DampingCoefficient scales the classical step in Damped.
const DampingCoefficient = 0.5

// Increment computes the Newton step dx from the unknown x, the residual f
// and its derivative df. Implementations are element-wise.
type Increment interface {
	Name() string
	Compute(x, f, df, dx *buffer.Buffer) error
}

// Classical is the plain Newton step dx = -f/df.
type Classical struct{}

func (Classical) Name() string { return "classical" }

func (Classical) Compute(x, f, df, dx *buffer.Buffer) error {
	if err := checkOperands(f, df, dx); err != nil {
		return err
	}
	fd, dfd, out := f.Data(), df.Data(), dx.Data()
	for i := range out {
		out[i] = -fd[i] / dfd[i]
	}
	return nil
}

// Damped scales the classical step by DampingCoefficient.
type Damped struct{}

func (Damped) Name() string { return "damped" }

func (Damped) Compute(x, f, df, dx *buffer.Buffer) error {
	if err := checkOperands(f, df, dx); err != nil {
		return err
	}
	fd, dfd, out := f.Data(), df.Data(), dx.Data()
	for i := range out {
		out[i] = -DampingCoefficient * fd[i] / dfd[i]
	}
	return nil
}

// SignPreserving takes the classical step unless it would flip the sign of
// x, in which case it moves halfway to zero.
type SignPreserving struct{}

func (SignPreserving) Name() string { return "sign-preserving" }

func (SignPreserving) Compute(x, f, df, dx *buffer.Buffer) error {
	if err := checkOperands(x, f, df, dx); err != nil {
		return err
	}
	xd, fd, dfd, out := x.Data(), f.Data(), df.Data(), dx.Data()
	for i := range out {
		step := -fd[i] / dfd[i]
		if (xd[i]+step)*xd[i] < 0 {
			out[i] = -0.5 * xd[i]
		} else {
			out[i] = step
		}
	}
	return nil
}

func checkOperands(bufs ...*buffer.Buffer) error {
	for _, b := range bufs {
		if !b.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidBuffer, b.Label())
		}
	}
	n := bufs[0].Len()
	for _, b := range bufs[1:] {
		if b.Len() != n {
			return fmt.Errorf("%w: %s (%d) vs %s (%d)", ErrSizeMismatch, bufs[0].Label(), n, b.Label(), b.Len())
		}
	}
	return nil
}
