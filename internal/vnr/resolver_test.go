package vnr

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/vnrsolve/internal/buffer"
	"github.com/san-kum/vnrsolve/internal/eos"
	"github.com/san-kum/vnrsolve/internal/newton"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	refSolution   = 200765.8953965593
	refPressure   = 13088079183.590538
	refSoundSpeed = 4503.84710590959
)

type cell struct {
	oldDensity, newDensity, pressure, energy float64
}

var (
	reference = cell{8230, 9500, 1e10, 1.325e4}
	// Release state whose converged energy gives c² < 0.
	unphysical = cell{9500, 8000, 1e12, 0}
)

type state struct {
	in  Input
	out Output
}

func newState(t testing.TB, cells []cell) state {
	t.Helper()
	n := len(cells)
	s := state{
		in: Input{
			OldSpecificVolume: buffer.MustNew(n, "old_specific_volume"),
			NewSpecificVolume: buffer.MustNew(n, "new_specific_volume"),
			Pressure:          buffer.MustNew(n, "pressure"),
			InternalEnergy:    buffer.MustNew(n, "internal_energy"),
		},
		out: Output{
			InternalEnergy: buffer.MustNew(n, "solution"),
			Pressure:       buffer.MustNew(n, "new_pressure"),
			SoundSpeed:     buffer.MustNew(n, "new_sound_speed"),
		},
	}
	for i, c := range cells {
		s.in.OldSpecificVolume.Set(i, 1/c.oldDensity)
		s.in.NewSpecificVolume.Set(i, 1/c.newDensity)
		s.in.Pressure.Set(i, c.pressure)
		s.in.InternalEnergy.Set(i, c.energy)
	}
	return s
}

func repeat(c cell, n int) []cell {
	cells := make([]cell, n)
	for i := range cells {
		cells[i] = c
	}
	return cells
}

func copper(t testing.TB) *eos.MieGruneisen {
	t.Helper()
	mg, err := eos.NewMieGruneisen(eos.Copper())
	require.NoError(t, err)
	return mg
}

func assertRel(t *testing.T, want, got float64, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InEpsilon(t, want, got, 1e-12, msgAndArgs...)
}

func TestResolveReference(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 4, 10, 16} {
		s := newState(t, repeat(reference, 10))
		r, err := NewResolver(copper(t), WithWorkers(workers), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)

		report, err := r.Resolve(context.Background(), s.in, s.out)
		require.NoError(t, err, "workers=%d", workers)

		assert.Equal(t, 10, report.Cells)
		assert.Equal(t, min(workers, 10), report.Workers)
		assert.Zero(t, report.Failed())
		for _, c := range report.Chunks {
			assert.Equal(t, newton.Converged, c.Status)
			assert.Equal(t, 2, c.Iterations)
			assert.NoError(t, c.Err)
		}
		for i := 0; i < 10; i++ {
			assertRel(t, refSolution, s.out.InternalEnergy.At(i), "cell %d", i)
			assertRel(t, refPressure, s.out.Pressure.At(i), "cell %d", i)
			assertRel(t, refSoundSpeed, s.out.SoundSpeed.At(i), "cell %d", i)
		}

		assert.True(t, s.in.InternalEnergy.Uniform(1.325e4, 0))
		assert.True(t, s.in.Pressure.Uniform(1e10, 0))
	}
}

func TestResolveIndependentOfWorkers(t *testing.T) {
	cells := make([]cell, 37)
	for i := range cells {
		cells[i] = cell{
			oldDensity: 8230 + 10*float64(i),
			newDensity: 8600 + 40*float64(i),
			pressure:   1e9 * float64(1+i%5),
			energy:     1e4 + 500*float64(i),
		}
	}

	solve := func(workers int) state {
		s := newState(t, cells)
		r, err := NewResolver(copper(t), WithWorkers(workers))
		require.NoError(t, err)
		_, err = r.Resolve(context.Background(), s.in, s.out)
		require.NoError(t, err)
		return s
	}

	serial := solve(1)
	for _, workers := range []int{2, 5, 8} {
		par := solve(workers)
		assert.Equal(t, serial.out.InternalEnergy.Data(), par.out.InternalEnergy.Data(), "workers=%d", workers)
		assert.Equal(t, serial.out.Pressure.Data(), par.out.Pressure.Data(), "workers=%d", workers)
		assert.Equal(t, serial.out.SoundSpeed.Data(), par.out.SoundSpeed.Data(), "workers=%d", workers)
	}
}

func TestResolveRelease(t *testing.T) {
	s := newState(t, []cell{{9000, 8800, 1e9, 2e4}})
	r, err := NewResolver(copper(t))
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), s.in, s.out)
	require.NoError(t, err)
	assertRel(t, 20813.007768734333, s.out.InternalEnergy.At(0))
	assertRel(t, -1643902152.837593, s.out.Pressure.At(0))
	assertRel(t, 3892.525451371233, s.out.SoundSpeed.At(0))
}

func TestResolveInvalidInput(t *testing.T) {
	r, err := NewResolver(copper(t))
	require.NoError(t, err)

	s := newState(t, repeat(reference, 4))
	require.NoError(t, s.out.InternalEnergy.Fill(-1))
	s.in.Pressure = buffer.MustNew(3, "pressure")

	report, err := r.Resolve(context.Background(), s.in, s.out)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, buffer.ErrSizeMismatch)
	assert.Nil(t, report)
	assert.True(t, s.out.InternalEnergy.Uniform(-1, 0))

	s = newState(t, repeat(reference, 4))
	s.out.SoundSpeed = nil
	_, err = r.Resolve(context.Background(), s.in, s.out)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveAbortsOnSoundSpeed(t *testing.T) {
	cells := repeat(reference, 10)
	cells[7] = unphysical
	s := newState(t, cells)

	r, err := NewResolver(copper(t), WithWorkers(3))
	require.NoError(t, err)

	report, err := r.Resolve(context.Background(), s.in, s.out)
	require.Error(t, err)
	assert.ErrorIs(t, err, eos.ErrNegativeSoundSpeed)

	var serr *eos.SoundSpeedError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 7, serr.Cell)
	assert.InDelta(t, 1/8000.0, serr.SpecificVolume, 1e-18)
	assert.Negative(t, serr.SquaredSoundSpeed)
	assert.Error(t, report.Chunks[2].Err)
}

func TestResolveContinuePolicy(t *testing.T) {
	cells := repeat(reference, 10)
	cells[7] = unphysical
	s := newState(t, cells)

	core, logs := observer.New(zap.DebugLevel)
	r, err := NewResolver(copper(t), WithWorkers(3), WithPolicy(PolicyContinue), WithLogger(zap.New(core)))
	require.NoError(t, err)

	report, err := r.Resolve(context.Background(), s.in, s.out)
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []int{2}, rerr.Chunks)
	assert.ErrorIs(t, err, eos.ErrNegativeSoundSpeed)
	assert.Contains(t, err.Error(), "1 chunk(s) failed [2]")

	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, newton.Converged, report.Chunks[0].Status)
	assert.Equal(t, newton.Converged, report.Chunks[1].Status)
	for i := 0; i < 6; i++ {
		assertRel(t, refSolution, s.out.InternalEnergy.At(i), "cell %d", i)
		assertRel(t, refSoundSpeed, s.out.SoundSpeed.At(i), "cell %d", i)
	}

	assert.Equal(t, 1, logs.FilterMessage("chunk failed").Len())
	assert.Equal(t, 2, logs.FilterMessage("chunk finished").Len())
	assert.Equal(t, 3, logs.FilterMessage("chunk started").Len())
}

func TestResolveNotConverged(t *testing.T) {
	s := newState(t, repeat(reference, 4))
	r, err := NewResolver(copper(t), WithWorkers(2), WithIncrement(newton.Damped{}), WithPolicy(PolicyContinue))
	require.NoError(t, err)

	report, err := r.Resolve(context.Background(), s.in, s.out)
	assert.ErrorIs(t, err, newton.ErrNotConverged)

	var cerr *newton.ConvergenceError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 41, cerr.Iterations)

	var unconverged []int
	for _, c := range report.Chunks {
		assert.Equal(t, newton.MaxIterExceeded, c.Status)
		assert.Equal(t, 41, c.Iterations)
		var ce *newton.ConvergenceError
		require.ErrorAs(t, c.Err, &ce)
		unconverged = append(unconverged, ce.Unconverged...)
	}
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, unconverged)
	assert.Equal(t, 41, report.MaxIterations())

	for i := 0; i < 4; i++ {
		assert.InEpsilon(t, refSolution, s.out.InternalEnergy.At(i), 1e-9)
	}
}

func TestResolveMaxIterations(t *testing.T) {
	s := newState(t, repeat(reference, 2))
	r, err := NewResolver(copper(t), WithMaxIterations(0), WithWorkers(1))
	require.NoError(t, err)
	assert.Equal(t, newton.DefaultMaxIterations, r.Solver().MaxIterations())

	r, err = NewResolver(copper(t), WithMaxIterations(1), WithWorkers(1))
	require.NoError(t, err)
	report, err := r.Resolve(context.Background(), s.in, s.out)
	require.NoError(t, err)
	assert.Equal(t, 2, report.MaxIterations())
}

func TestResolveCanceled(t *testing.T) {
	s := newState(t, repeat(reference, 8))
	r, err := NewResolver(copper(t), WithWorkers(4))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Resolve(ctx, s.in, s.out)
	assert.ErrorIs(t, err, context.Canceled)
}

type countingObserver struct {
	calls atomic.Int64
}

func (o *countingObserver) OnIteration(newton.Iteration) { o.calls.Add(1) }

func TestResolveObserver(t *testing.T) {
	obs := &countingObserver{}
	s := newState(t, repeat(reference, 12))
	r, err := NewResolver(copper(t), WithWorkers(4), WithObserver(obs))
	require.NoError(t, err)

	report, err := r.Resolve(context.Background(), s.in, s.out)
	require.NoError(t, err)

	total := 0
	for _, c := range report.Chunks {
		total += c.Iterations
	}
	assert.Equal(t, int64(total), obs.calls.Load())
}

func TestNewResolverDefaults(t *testing.T) {
	_, err := NewResolver(nil)
	assert.ErrorIs(t, err, ErrNilEOS)

	r, err := NewResolver(copper(t), WithWorkers(-2), WithIncrement(nil), WithLogger(nil))
	require.NoError(t, err)
	assert.Positive(t, r.Workers())
	assert.Equal(t, PolicyAbort, r.Policy())
	assert.Equal(t, "classical", r.Solver().Increment().Name())
	assert.Equal(t, newton.DefaultRelativeGap, r.Solver().Criterion())
	assert.Equal(t, newton.DefaultMaxIterations, r.Solver().MaxIterations())
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name    string
		want    Policy
		wantErr bool
	}{
		{"", PolicyAbort, false},
		{"abort", PolicyAbort, false},
		{"continue", PolicyContinue, false},
		{"retry", PolicyAbort, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.name)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownPolicy)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		if tt.name != "" {
			assert.Equal(t, tt.name, got.String())
		}
	}
}

func TestLaunch(t *testing.T) {
	s := newState(t, repeat(reference, 10))
	err := Launch(context.Background(), eos.Copper(),
		s.in.OldSpecificVolume, s.in.NewSpecificVolume, s.in.Pressure, s.in.InternalEnergy,
		s.out.InternalEnergy, s.out.Pressure, s.out.SoundSpeed)
	require.NoError(t, err)
	assert.True(t, s.out.InternalEnergy.Uniform(refSolution, 1e-12))

	bad := eos.Copper()
	bad.CZero = math.Inf(1)
	err = Launch(context.Background(), bad,
		s.in.OldSpecificVolume, s.in.NewSpecificVolume, s.in.Pressure, s.in.InternalEnergy,
		s.out.InternalEnergy, s.out.Pressure, s.out.SoundSpeed)
	assert.ErrorIs(t, err, eos.ErrInvalidParams)

	err = Launch(context.Background(), eos.Copper(),
		s.in.OldSpecificVolume, s.in.NewSpecificVolume, s.in.Pressure, s.in.InternalEnergy,
		s.out.InternalEnergy, buffer.MustNew(2, "short"), s.out.SoundSpeed)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
