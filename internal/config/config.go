package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vnrsolve/internal/buffer"
	"github.com/san-kum/vnrsolve/internal/eos"
	"github.com/san-kum/vnrsolve/internal/newton"
	"github.com/san-kum/vnrsolve/internal/vnr"
)

const (
	DefaultMaterial   = "copper"
	DefaultIncrement  = "classical"
	DefaultPolicy     = "abort"
	DefaultCells      = 10
	DefaultOldDensity = 8230.0
	DefaultNewDensity = 9500.0
	DefaultPressure   = 1e10
	DefaultEnergy     = 1.325e4
)

var (
	ErrInvalidConfig   = errors.New("config: invalid configuration")
	ErrUnknownMaterial = errors.New("config: unknown material")
)

type Config struct {
	// Material names a preset; Params, when set, takes precedence.
	Material      string      `yaml:"material"`
	Params        *eos.Params `yaml:"params,omitempty"`
	Workers       int         `yaml:"workers"`
	Increment     string      `yaml:"increment"`
	MaxIterations int         `yaml:"max_iterations"`
	Policy        string      `yaml:"policy"`
	Cells         CellsConfig `yaml:"cells"`
}

// CellsConfig describes a batch of identical cells.
type CellsConfig struct {
	Count          int     `yaml:"count"`
	OldDensity     float64 `yaml:"old_density"`
	NewDensity     float64 `yaml:"new_density"`
	Pressure       float64 `yaml:"pressure"`
	InternalEnergy float64 `yaml:"internal_energy"`
}

func DefaultConfig() *Config {
	return &Config{
		Material:      DefaultMaterial,
		Increment:     DefaultIncrement,
		MaxIterations: newton.DefaultMaxIterations,
		Policy:        DefaultPolicy,
		Cells: CellsConfig{
			Count:          DefaultCells,
			OldDensity:     DefaultOldDensity,
			NewDensity:     DefaultNewDensity,
			Pressure:       DefaultPressure,
			InternalEnergy: DefaultEnergy,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := c.MaterialParams(); err != nil {
		return err
	}
	if _, err := newton.IncrementByName(c.Increment); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := vnr.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: max_iterations must be >= 0, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	return c.Cells.Validate()
}

// MaterialParams resolves the EOS constants of the configuration.
func (c *Config) MaterialParams() (eos.Params, error) {
	if c.Params != nil {
		if err := c.Params.Validate(); err != nil {
			return eos.Params{}, err
		}
		return *c.Params, nil
	}
	p, ok := GetMaterial(c.Material)
	if !ok {
		return eos.Params{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownMaterial, c.Material, ListMaterials())
	}
	return p, nil
}

// ResolverOptions translates the solver settings into vnr options.
// Workers and MaxIterations left at zero keep the resolver defaults.
func (c *Config) ResolverOptions() ([]vnr.Option, error) {
	inc, err := newton.IncrementByName(c.Increment)
	if err != nil {
		return nil, err
	}
	policy, err := vnr.ParsePolicy(c.Policy)
	if err != nil {
		return nil, err
	}
	return []vnr.Option{
		vnr.WithWorkers(c.Workers),
		vnr.WithIncrement(inc),
		vnr.WithMaxIterations(c.MaxIterations),
		vnr.WithPolicy(policy),
	}, nil
}

func (c CellsConfig) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("%w: cells.count must be positive, got %d", ErrInvalidConfig, c.Count)
	}
	if c.Count > buffer.MaxSize {
		return fmt.Errorf("%w: cells.count exceeds %d", ErrInvalidConfig, buffer.MaxSize)
	}
	if !(c.OldDensity > 0) || !(c.NewDensity > 0) {
		return fmt.Errorf("%w: densities must be positive, got %g and %g", ErrInvalidConfig, c.OldDensity, c.NewDensity)
	}
	return nil
}

// Build allocates the input and output buffers of the batch.
func (c CellsConfig) Build() (vnr.Input, vnr.Output, error) {
	var in vnr.Input
	var out vnr.Output
	if err := c.Validate(); err != nil {
		return in, out, err
	}

	var err error
	alloc := func(label string) *buffer.Buffer {
		if err != nil {
			return nil
		}
		var b *buffer.Buffer
		b, err = buffer.New(c.Count, label)
		return b
	}
	oldDensity := alloc("old_density")
	newDensity := alloc("new_density")
	in.OldSpecificVolume = alloc("old_specific_volume")
	in.NewSpecificVolume = alloc("new_specific_volume")
	in.Pressure = alloc("pressure")
	in.InternalEnergy = alloc("internal_energy")
	out.InternalEnergy = alloc("solution")
	out.Pressure = alloc("new_pressure")
	out.SoundSpeed = alloc("new_sound_speed")
	if err != nil {
		return in, out, err
	}

	fills := []struct {
		b *buffer.Buffer
		v float64
	}{
		{oldDensity, c.OldDensity},
		{newDensity, c.NewDensity},
		{in.Pressure, c.Pressure},
		{in.InternalEnergy, c.InternalEnergy},
	}
	for _, f := range fills {
		if err := f.b.Fill(f.v); err != nil {
			return in, out, err
		}
	}
	if err := buffer.Reciprocal(in.OldSpecificVolume, oldDensity); err != nil {
		return in, out, err
	}
	if err := buffer.Reciprocal(in.NewSpecificVolume, newDensity); err != nil {
		return in, out, err
	}
	return in, out, nil
}
