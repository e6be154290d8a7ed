package eos

import (
	"fmt"
	"math"

	"github.com/san-kum/vnrsolve/internal/buffer"
)

// MieGruneisen expresses pressure as a Hugoniot reference pressure plus a
// Grüneisen-weighted deviation of internal energy from the Hugoniot energy.
type MieGruneisen struct {
	params Params
}

func NewMieGruneisen(p Params) (*MieGruneisen, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &MieGruneisen{params: p}, nil
}

func (m *MieGruneisen) Name() string   { return "mie-gruneisen" }
func (m *MieGruneisen) Params() Params { return m.params }

func (m *MieGruneisen) Init(specificVolume *buffer.Buffer) (Cache, error) {
	c, err := m.InitCache(specificVolume)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// InitCache is Init returning the concrete cache.
func (m *MieGruneisen) InitCache(specificVolume *buffer.Buffer) (*MieGruneisenCache, error) {
	if !specificVolume.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVolume, specificVolume)
	}
	n := specificVolume.Len()
	c := &MieGruneisenCache{params: m.params}

	var err error
	alloc := func(label string) *buffer.Buffer {
		if err != nil {
			return nil
		}
		var b *buffer.Buffer
		b, err = buffer.New(n, label)
		return b
	}
	c.phi = alloc("phi")
	c.dphi = alloc("dphi")
	c.einth = alloc("einth")
	c.deinth = alloc("deinth")
	c.gammaPerVol = alloc("gamma_per_vol")
	if err != nil {
		c.release()
		return nil, fmt.Errorf("eos: cache allocation for %d cells: %w", n, err)
	}

	if err := c.Refresh(specificVolume); err != nil {
		c.release()
		return nil, err
	}
	return c, nil
}

// Terms are the volume-dependent quantities of one cell.
type Terms struct {
	Phi         float64 // pressure on the Hugoniot
	DPhi        float64 // dPhi/dv
	EInth       float64 // internal energy on the Hugoniot
	DEInth      float64 // dEInth/dv, zero in release
	GammaPerVol float64 // Grüneisen coefficient over v, i.e. dP/de
}

// Compression returns epsv = 1 - rho_zero*v; positive in compression.
func (p Params) Compression(specificVolume float64) float64 {
	return 1 - p.RhoZero*specificVolume
}

// TermsAt evaluates the volume-dependent terms for a single specific volume.
func (p Params) TermsAt(v float64) Terms {
	epsv := p.Compression(v)
	c02 := p.CZero * p.CZero
	t := Terms{
		GammaPerVol: (p.GammaZero*(1-epsv) + p.CoeffB*epsv) / v,
	}
	if epsv > 0 {
		denom := 1 / (1 - (p.S1+p.S2*epsv+p.S3*epsv*epsv)*epsv)
		phi := p.RhoZero * c02 * epsv * denom * denom
		redondA := p.S1 + 2*p.S2*epsv + 3*p.S3*epsv*epsv
		t.Phi = phi
		t.EInth = p.EZero + phi*epsv/(2*p.RhoZero)
		t.DPhi = phi * p.RhoZero * (-1/epsv - 2*redondA*denom)
		t.DEInth = phi * (-1 - epsv*redondA*denom)
	} else {
		t.Phi = p.RhoZero * c02 * epsv / (1 - epsv)
		t.EInth = p.EZero
		t.DPhi = -c02 / (v * v)
	}
	return t
}

// MieGruneisenCache is the Cache of a MieGruneisen EOS. It is owned by a
// single goroutine.
type MieGruneisenCache struct {
	params      Params
	phi         *buffer.Buffer
	dphi        *buffer.Buffer
	einth       *buffer.Buffer
	deinth      *buffer.Buffer
	gammaPerVol *buffer.Buffer
	closed      bool
}

func (c *MieGruneisenCache) Len() int { return c.phi.Len() }

// Refresh recomputes the cache for a new specific-volume snapshot of the
// same size.
func (c *MieGruneisenCache) Refresh(specificVolume *buffer.Buffer) error {
	if c.closed {
		return ErrClosed
	}
	if !specificVolume.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidVolume, specificVolume)
	}
	if specificVolume.Len() != c.Len() {
		return fmt.Errorf("%w: cache (%d) vs %s (%d)", ErrSizeMismatch, c.Len(), specificVolume.Label(), specificVolume.Len())
	}

	// The whole snapshot is checked before any cell is overwritten.
	v := specificVolume.Data()
	for i, vi := range v {
		if !(vi > 0) || math.IsInf(vi, 0) {
			return fmt.Errorf("%w: %s[%d] = %g", ErrInvalidVolume, specificVolume.Label(), i, vi)
		}
	}

	phi, dphi, einth, deinth, gpv := c.phi.Data(), c.dphi.Data(), c.einth.Data(), c.deinth.Data(), c.gammaPerVol.Data()
	for i, vi := range v {
		t := c.params.TermsAt(vi)
		phi[i] = t.Phi
		dphi[i] = t.DPhi
		einth[i] = t.EInth
		deinth[i] = t.DEInth
		gpv[i] = t.GammaPerVol
	}
	return nil
}

// Terms returns the cached terms of cell i.
func (c *MieGruneisenCache) Terms(i int) Terms {
	return Terms{
		Phi:         c.phi.At(i),
		DPhi:        c.dphi.At(i),
		EInth:       c.einth.At(i),
		DEInth:      c.deinth.At(i),
		GammaPerVol: c.gammaPerVol.At(i),
	}
}

func (c *MieGruneisenCache) PressureAndDerivative(internalEnergy, pressure, dpde *buffer.Buffer) error {
	if err := c.check(internalEnergy, pressure, dpde); err != nil {
		return err
	}
	e, p, g := internalEnergy.Data(), pressure.Data(), dpde.Data()
	phi, einth, gpv := c.phi.Data(), c.einth.Data(), c.gammaPerVol.Data()
	for i := range e {
		g[i] = gpv[i]
		p[i] = phi[i] + gpv[i]*(e[i]-einth[i])
	}
	return nil
}

// PressureAndSoundSpeed stops at the first cell with c² < 0 and returns a
// *SoundSpeedError for it; earlier cells are already written.
func (c *MieGruneisenCache) PressureAndSoundSpeed(specificVolume, internalEnergy, pressure, soundSpeed *buffer.Buffer) error {
	if err := c.check(specificVolume, internalEnergy, pressure, soundSpeed); err != nil {
		return err
	}
	dgam := c.params.RhoZero * (c.params.GammaZero - c.params.CoeffB)
	v, e, p, cs := specificVolume.Data(), internalEnergy.Data(), pressure.Data(), soundSpeed.Data()
	phi, dphi, einth, deinth, gpv := c.phi.Data(), c.dphi.Data(), c.einth.Data(), c.deinth.Data(), c.gammaPerVol.Data()
	for i := range e {
		p[i] = phi[i] + gpv[i]*(e[i]-einth[i])
		dpdv := dphi[i] + (dgam-gpv[i])*(e[i]-einth[i])/v[i] - gpv[i]*deinth[i]
		c2 := v[i] * v[i] * (p[i]*gpv[i] - dpdv)
		if c2 < 0 {
			return &SoundSpeedError{
				Cell:              i,
				SpecificVolume:    v[i],
				Pressure:          p[i],
				DPDE:              gpv[i],
				DPDV:              dpdv,
				SquaredSoundSpeed: c2,
			}
		}
		cs[i] = math.Sqrt(c2)
	}
	return nil
}

// Close releases the cached arrays. Closing twice is a no-op.
func (c *MieGruneisenCache) Close() error {
	if c.closed {
		return nil
	}
	c.release()
	c.closed = true
	return nil
}

func (c *MieGruneisenCache) release() {
	for _, b := range []*buffer.Buffer{c.phi, c.dphi, c.einth, c.deinth, c.gammaPerVol} {
		b.Clear()
	}
}

func (c *MieGruneisenCache) check(bufs ...*buffer.Buffer) error {
	if c.closed {
		return ErrClosed
	}
	if err := buffer.SameSize(bufs...); err != nil {
		return err
	}
	if bufs[0].Len() != c.Len() {
		return fmt.Errorf("%w: cache (%d) vs %s (%d)", ErrSizeMismatch, c.Len(), bufs[0].Label(), bufs[0].Len())
	}
	return nil
}
