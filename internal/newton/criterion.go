package newton

import (
	"fmt"
	"math"

	"github.com/san-kum/vnrsolve/internal/buffer"
)

// Criterion updates the per-cell convergence flags from the last step and
// residual, and reports whether every cell has converged. Flags must only
// ever be raised, never lowered.
type Criterion interface {
	Name() string
	Check(dx, f *buffer.Buffer, converged []bool) (bool, error)
}

// RelativeGap flags a cell once |f| < Epsilon*|dx| + Precision.
type RelativeGap struct {
	Epsilon   float64
	Precision float64
}

// DefaultRelativeGap is the criterion used by the VNR resolution.
var DefaultRelativeGap = RelativeGap{Epsilon: 1e-8, Precision: 1e-9}

func (RelativeGap) Name() string { return "relative-gap" }

func (c RelativeGap) Check(dx, f *buffer.Buffer, converged []bool) (bool, error) {
	if err := checkOperands(dx, f); err != nil {
		return false, err
	}
	if len(converged) != f.Len() {
		return false, fmt.Errorf("%w: flags (%d) vs %s (%d)", ErrSizeMismatch, len(converged), f.Label(), f.Len())
	}

	dxd, fd := dx.Data(), f.Data()
	all := true
	for i := range fd {
		if math.Abs(fd[i]) < c.Epsilon*math.Abs(dxd[i])+c.Precision {
			converged[i] = true
		} else if !converged[i] {
			all = false
		}
	}
	return all, nil
}
