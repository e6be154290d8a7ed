package eos

import (
	"fmt"
	"math"
)

// Params are the Mie-Grüneisen material constants (SI units).
type Params struct {
	CZero     float64 `yaml:"c_zero" json:"c_zero"`
	S1        float64 `yaml:"s1" json:"s1"`
	S2        float64 `yaml:"s2" json:"s2"`
	S3        float64 `yaml:"s3" json:"s3"`
	RhoZero   float64 `yaml:"rho_zero" json:"rho_zero"`
	GammaZero float64 `yaml:"gamma_zero" json:"gamma_zero"`
	CoeffB    float64 `yaml:"coeff_b" json:"coeff_b"`
	EZero     float64 `yaml:"e_zero" json:"e_zero"`
}

// Copper is the copper-like material used by the reference fixtures.
func Copper() Params {
	return Params{
		CZero:     3940,
		S1:        1.489,
		S2:        0,
		S3:        0,
		RhoZero:   8930,
		GammaZero: 2.02,
		CoeffB:    0.47,
		EZero:     0,
	}
}

func (p Params) Validate() error {
	values := map[string]float64{
		"c_zero": p.CZero, "s1": p.S1, "s2": p.S2, "s3": p.S3,
		"rho_zero": p.RhoZero, "gamma_zero": p.GammaZero, "coeff_b": p.CoeffB, "e_zero": p.EZero,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidParams, name)
		}
	}
	if p.RhoZero <= 0 {
		return fmt.Errorf("%w: rho_zero must be positive, got %g", ErrInvalidParams, p.RhoZero)
	}
	if p.CZero <= 0 {
		return fmt.Errorf("%w: c_zero must be positive, got %g", ErrInvalidParams, p.CZero)
	}
	return nil
}
