package eos

import (
	"errors"

	"github.com/san-kum/vnrsolve/internal/buffer"
)

// EOS is an equation-of-state family bound to material constants.
type EOS interface {
	Name() string
	// Init evaluates the terms that depend on specific volume only.
	Init(specificVolume *buffer.Buffer) (Cache, error)
}

// Cache holds the volume-dependent terms of an EOS for one set of cells.
type Cache interface {
	Len() int
	// PressureAndDerivative writes the pressure and dP/de for the given
	// internal energy.
	PressureAndDerivative(internalEnergy, pressure, dpde *buffer.Buffer) error
	// PressureAndSoundSpeed writes the pressure and the sound speed.
	// specificVolume must be the snapshot the cache was built from.
	PressureAndSoundSpeed(specificVolume, internalEnergy, pressure, soundSpeed *buffer.Buffer) error
	Close() error
}

// With initializes a cache, runs fn and closes the cache on every path.
func With(e EOS, specificVolume *buffer.Buffer, fn func(Cache) error) (err error) {
	c, err := e.Init(specificVolume)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.Close())
	}()
	return fn(c)
}
