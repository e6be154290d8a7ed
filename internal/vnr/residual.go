package vnr

import (
	"fmt"

	"github.com/san-kum/vnrsolve/internal/buffer"
	"github.com/san-kum/vnrsolve/internal/eos"
)

// Parameters binds the caller's cell state to an EOS cache so that the VNR
// residual can be handed to a newton.Solver. It borrows the buffers and
// must not outlive them.
type Parameters struct {
	OldSpecificVolume *buffer.Buffer
	NewSpecificVolume *buffer.Buffer
	OldInternalEnergy *buffer.Buffer
	OldPressure       *buffer.Buffer
	EOS               eos.Cache

	pressure *buffer.Buffer
	dpde     *buffer.Buffer
}

func NewParameters(oldV, newV, oldE, oldP *buffer.Buffer, cache eos.Cache) (*Parameters, error) {
	if cache == nil {
		return nil, ErrNilEOS
	}
	if err := buffer.SameSize(oldV, newV, oldE, oldP); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	n := oldV.Len()
	if cache.Len() != n {
		return nil, fmt.Errorf("%w: eos cache holds %d cells, state holds %d", ErrInvalidInput, cache.Len(), n)
	}

	pressure, err := buffer.New(n, "pressure")
	if err != nil {
		return nil, err
	}
	dpde, err := buffer.New(n, "dpde")
	if err != nil {
		return nil, err
	}
	return &Parameters{
		OldSpecificVolume: oldV,
		NewSpecificVolume: newV,
		OldInternalEnergy: oldE,
		OldPressure:       oldP,
		EOS:               cache,
		pressure:          pressure,
		dpde:              dpde,
	}, nil
}

// Evaluate writes F(e) = e + (P(e) + P_old)·Δv/2 - e_old and
// F'(e) = 1 + dP/de·Δv/2.
func (p *Parameters) Evaluate(x, f, df *buffer.Buffer) error {
	if err := buffer.SameSize(x, f, df, p.pressure); err != nil {
		return fmt.Errorf("vnr residual: %w", err)
	}
	if err := p.EOS.PressureAndDerivative(x, p.pressure, p.dpde); err != nil {
		return err
	}

	e, out, dout := x.Data(), f.Data(), df.Data()
	vOld, vNew := p.OldSpecificVolume.Data(), p.NewSpecificVolume.Data()
	eOld, pOld := p.OldInternalEnergy.Data(), p.OldPressure.Data()
	pNew, g := p.pressure.Data(), p.dpde.Data()
	for i := range e {
		half := 0.5 * (vNew[i] - vOld[i])
		out[i] = e[i] + (pNew[i]+pOld[i])*half - eOld[i]
		dout[i] = 1 + g[i]*half
	}
	return nil
}

// Release drops the scratch buffers.
func (p *Parameters) Release() {
	p.pressure.Clear()
	p.dpde.Clear()
}
