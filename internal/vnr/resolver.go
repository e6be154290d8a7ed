package vnr

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/vnrsolve/internal/buffer"
	"github.com/san-kum/vnrsolve/internal/eos"
	"github.com/san-kum/vnrsolve/internal/newton"
	"github.com/san-kum/vnrsolve/internal/parallel"
)

// Policy decides what a chunk failure does to the rest of the batch.
type Policy int

const (
	// PolicyAbort cancels the remaining chunks on the first failure.
	PolicyAbort Policy = iota
	// PolicyContinue resolves every chunk and reports all failures.
	PolicyContinue
)

func (p Policy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicyContinue:
		return "continue"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "abort":
		return PolicyAbort, nil
	case "continue":
		return PolicyContinue, nil
	}
	return PolicyAbort, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Input is the cell state at the start of the step.
type Input struct {
	OldSpecificVolume *buffer.Buffer
	NewSpecificVolume *buffer.Buffer
	Pressure          *buffer.Buffer
	InternalEnergy    *buffer.Buffer
}

// Output receives the resolved state.
type Output struct {
	InternalEnergy *buffer.Buffer
	Pressure       *buffer.Buffer
	SoundSpeed     *buffer.Buffer
}

type ChunkReport struct {
	Range      parallel.Range `json:"range"`
	Iterations int            `json:"iterations"`
	Status     newton.Status  `json:"-"`
	Elapsed    time.Duration  `json:"elapsed"`
	Err        error          `json:"-"`
}

// Report describes how a batch was resolved. Chunks skipped after an
// abort keep Status newton.Running.
type Report struct {
	Cells   int           `json:"cells"`
	Workers int           `json:"workers"`
	Chunks  []ChunkReport `json:"chunks"`
	Elapsed time.Duration `json:"elapsed"`
}

// MaxIterations is the largest iteration count over all chunks.
func (r *Report) MaxIterations() int {
	m := 0
	for _, c := range r.Chunks {
		if c.Iterations > m {
			m = c.Iterations
		}
	}
	return m
}

func (r *Report) Failed() int {
	n := 0
	for _, c := range r.Chunks {
		if c.Err != nil {
			n++
		}
	}
	return n
}

type Resolver struct {
	eos       eos.EOS
	workers   int
	increment newton.Increment
	maxIter   int
	policy    Policy
	logger    *zap.Logger
	observers []newton.Observer
	pool      *buffer.Pool
	solver    *newton.Solver
}

type Option func(*Resolver)

// WithWorkers sets the number of chunks; values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithIncrement(inc newton.Increment) Option {
	return func(r *Resolver) {
		if inc != nil {
			r.increment = inc
		}
	}
}

func WithMaxIterations(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxIter = n
		}
	}
}

func WithPolicy(p Policy) Option {
	return func(r *Resolver) { r.policy = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver attaches a solver observer. It is called from every chunk
// goroutine and must be safe for concurrent use.
func WithObserver(o newton.Observer) Option {
	return func(r *Resolver) { r.observers = append(r.observers, o) }
}

func NewResolver(e eos.EOS, opts ...Option) (*Resolver, error) {
	if e == nil {
		return nil, ErrNilEOS
	}
	r := &Resolver{
		eos:       e,
		workers:   runtime.GOMAXPROCS(0),
		increment: newton.Classical{},
		maxIter:   newton.DefaultMaxIterations,
		policy:    PolicyAbort,
		logger:    zap.NewNop(),
		pool:      buffer.NewPool(),
	}
	for _, opt := range opts {
		opt(r)
	}

	solverOpts := []newton.Option{
		newton.WithMaxIterations(r.maxIter),
		newton.WithPool(r.pool),
	}
	for _, o := range r.observers {
		solverOpts = append(solverOpts, newton.WithObserver(o))
	}
	r.solver = newton.New(r.increment, newton.DefaultRelativeGap, solverOpts...)
	return r, nil
}

func (r *Resolver) Workers() int           { return r.workers }
func (r *Resolver) Policy() Policy         { return r.policy }
func (r *Resolver) Solver() *newton.Solver { return r.solver }

// Resolve computes the new internal energy, pressure and sound speed of
// every cell. Output buffers are written chunk by chunk; on failure the
// cells of failed chunks hold partial results.
func (r *Resolver) Resolve(ctx context.Context, in Input, out Output) (*Report, error) {
	err := buffer.SameSize(
		in.OldSpecificVolume, in.NewSpecificVolume, in.Pressure, in.InternalEnergy,
		out.InternalEnergy, out.Pressure, out.SoundSpeed,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	n := in.OldSpecificVolume.Len()
	ranges, err := parallel.Split(n, r.workers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	report := &Report{Cells: n, Workers: len(ranges), Chunks: make([]ChunkReport, len(ranges))}
	for i, rg := range ranges {
		report.Chunks[i].Range = rg
	}

	r.logger.Debug("resolving",
		zap.Int("cells", n),
		zap.Int("chunks", len(ranges)),
		zap.String("increment", r.increment.Name()),
		zap.Stringer("policy", r.policy))

	run := func(ctx context.Context, chunk int, rg parallel.Range) error {
		cr := &report.Chunks[chunk]
		start := time.Now()
		r.logger.Debug("chunk started", zap.Int("chunk", chunk), zap.Int("start", rg.Start), zap.Int("cells", rg.Len()))

		res, err := r.resolveChunk(ctx, rg, in, out)
		cr.Iterations = res.Iterations
		cr.Status = res.Status
		cr.Elapsed = time.Since(start)
		if err != nil {
			cr.Err = fmt.Errorf("vnr: chunk %d %v: %w", chunk, rg, err)
			r.logger.Warn("chunk failed", zap.Int("chunk", chunk), zap.Int("start", rg.Start), zap.Error(err))
			return cr.Err
		}
		r.logger.Debug("chunk finished",
			zap.Int("chunk", chunk),
			zap.Int("iterations", res.Iterations),
			zap.Duration("elapsed", cr.Elapsed))
		return nil
	}

	begin := time.Now()
	defer func() { report.Elapsed = time.Since(begin) }()

	if r.policy == PolicyContinue {
		errs := parallel.ForEach(ctx, ranges, r.workers, run)
		var failed []int
		for i, e := range errs {
			if e != nil {
				failed = append(failed, i)
			}
		}
		if len(failed) > 0 {
			return report, &ResolutionError{Chunks: failed, Err: errors.Join(errs...)}
		}
		return report, nil
	}

	if err := parallel.For(ctx, ranges, r.workers, run); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Resolver) resolveChunk(ctx context.Context, rg parallel.Range, in Input, out Output) (newton.Result, error) {
	var res newton.Result
	views, err := chunkViews(rg,
		in.OldSpecificVolume, in.NewSpecificVolume, in.Pressure, in.InternalEnergy,
		out.InternalEnergy, out.Pressure, out.SoundSpeed)
	if err != nil {
		return res, err
	}
	oldV, newV, oldP, oldE := views[0], views[1], views[2], views[3]
	sol, newP, newC := views[4], views[5], views[6]

	err = eos.With(r.eos, newV, func(cache eos.Cache) error {
		params, err := NewParameters(oldV, newV, oldE, oldP, cache)
		if err != nil {
			return err
		}
		defer params.Release()

		res, err = r.solver.Solve(ctx, params, oldE, sol)
		if err != nil {
			return err
		}
		return cache.PressureAndSoundSpeed(newV, sol, newP, newC)
	})
	return res, globalize(err, rg.Start)
}

func chunkViews(rg parallel.Range, bufs ...*buffer.Buffer) ([]*buffer.Buffer, error) {
	views := make([]*buffer.Buffer, len(bufs))
	for i, b := range bufs {
		v, err := b.View(b.Label(), rg.Start, rg.End)
		if err != nil {
			return nil, err
		}
		views[i] = v
	}
	return views, nil
}

// globalize rewrites chunk-relative cell indices into batch indices.
func globalize(err error, offset int) error {
	if err == nil || offset == 0 {
		return err
	}
	var serr *eos.SoundSpeedError
	if errors.As(err, &serr) {
		serr.Cell += offset
	}
	var cerr *newton.ConvergenceError
	if errors.As(err, &cerr) {
		for i := range cerr.Unconverged {
			cerr.Unconverged[i] += offset
		}
	}
	return err
}

// Launch resolves a batch with a Mie-Grüneisen EOS and default settings.
func Launch(ctx context.Context, params eos.Params,
	oldSpecificVolume, newSpecificVolume, pressure, internalEnergy,
	solution, newPressure, newSoundSpeed *buffer.Buffer,
) error {
	mg, err := eos.NewMieGruneisen(params)
	if err != nil {
		return err
	}
	r, err := NewResolver(mg)
	if err != nil {
		return err
	}
	_, err = r.Resolve(ctx,
		Input{
			OldSpecificVolume: oldSpecificVolume,
			NewSpecificVolume: newSpecificVolume,
			Pressure:          pressure,
			InternalEnergy:    internalEnergy,
		},
		Output{
			InternalEnergy: solution,
			Pressure:       newPressure,
			SoundSpeed:     newSoundSpeed,
		})
	return err
}
