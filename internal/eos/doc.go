// Package eos provides equations of state relating pressure to specific
// volume and internal energy.
//
// An [EOS] is split in two phases because the expensive part of the model
// depends on specific volume only:
//
//   - [EOS.Init] evaluates every volume-dependent term once and returns a
//     [Cache] bound to that specific-volume snapshot;
//   - [Cache.PressureAndDerivative] and [Cache.PressureAndSoundSpeed] then
//     add the cheap energy-dependent part, once per Newton iteration.
//
// A Cache is valid only while the specific volume it was built from is
// unchanged. It must be closed when done; [With] scopes that for callers:
//
//	err := eos.With(mg, volume, func(c eos.Cache) error {
//	    return c.PressureAndSoundSpeed(volume, energy, pressure, soundSpeed)
//	})
//
// [MieGruneisen] is the only family implemented.
package eos
