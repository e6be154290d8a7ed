package config

import (
	"sort"

	"github.com/san-kum/vnrsolve/internal/eos"
)

var Materials = map[string]eos.Params{
	"copper": eos.Copper(),
}

var Presets = map[string]*Config{
	"reference": {
		Material: "copper", Increment: "classical", Policy: "abort",
		Cells: CellsConfig{Count: 10, OldDensity: 8230, NewDensity: 9500, Pressure: 1e10, InternalEnergy: 1.325e4},
	},
	"release": {
		Material: "copper", Increment: "classical", Policy: "abort",
		Cells: CellsConfig{Count: 10, OldDensity: 9000, NewDensity: 8800, Pressure: 1e9, InternalEnergy: 2e4},
	},
	"large": {
		Material: "copper", Increment: "classical", Policy: "abort",
		Cells: CellsConfig{Count: 1_000_000, OldDensity: 8230, NewDensity: 9500, Pressure: 1e10, InternalEnergy: 1.325e4},
	},
}

// GetPreset returns a copy of the named scenario, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	return sortedKeys(Presets)
}

func GetMaterial(name string) (eos.Params, bool) {
	p, ok := Materials[name]
	return p, ok
}

func ListMaterials() []string {
	return sortedKeys(Materials)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
