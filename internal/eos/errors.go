package eos

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeSoundSpeed indicates c² < 0: the state is outside the
	// domain where the EOS is physical.
	ErrNegativeSoundSpeed = errors.New("eos: squared sound speed is negative")

	// ErrInvalidParams indicates material constants out of their valid range.
	ErrInvalidParams = errors.New("eos: invalid material parameters")

	// ErrInvalidVolume indicates a non-positive or non-finite specific volume.
	ErrInvalidVolume = errors.New("eos: invalid specific volume")

	// ErrSizeMismatch indicates operands that do not match the cache size.
	ErrSizeMismatch = errors.New("eos: size mismatch")

	// ErrClosed indicates use of a cache after Close.
	ErrClosed = errors.New("eos: cache closed")
)

// SoundSpeedError carries the state of the cell where c² < 0.
type SoundSpeedError struct {
	Cell              int
	SpecificVolume    float64
	Pressure          float64
	DPDE              float64
	DPDV              float64
	SquaredSoundSpeed float64
}

func (e *SoundSpeedError) Error() string {
	return fmt.Sprintf("eos: squared sound speed < 0 at cell %d: specific_volume=%15.9g pressure=%15.9g dpde=%15.9g dpdv=%15.9g c2=%15.9g",
		e.Cell, e.SpecificVolume, e.Pressure, e.DPDE, e.DPDV, e.SquaredSoundSpeed)
}

func (e *SoundSpeedError) Unwrap() error {
	return ErrNegativeSoundSpeed
}
