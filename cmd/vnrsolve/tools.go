package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/vnrsolve/internal/buffer"
	"github.com/san-kum/vnrsolve/internal/config"
	"github.com/san-kum/vnrsolve/internal/eos"
	"github.com/san-kum/vnrsolve/internal/metrics"
	"github.com/san-kum/vnrsolve/internal/newton"
	"github.com/san-kum/vnrsolve/internal/viz"
	"github.com/san-kum/vnrsolve/internal/vnr"
)

func eosCmd() *cobra.Command {
	var mat string
	cmd := &cobra.Command{
		Use:   "eos [density energy]...",
		Short: "evaluate the equation of state at (density, energy) pairs",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected (density, energy) pairs, got %d values", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			params, ok := config.GetMaterial(mat)
			if !ok {
				return fmt.Errorf("%w: %s (available: %v)", config.ErrUnknownMaterial, mat, config.ListMaterials())
			}
			mg, err := eos.NewMieGruneisen(params)
			if err != nil {
				return err
			}
			return evaluateEOS(mg, args)
		},
	}
	cmd.Flags().StringVar(&mat, "material", config.DefaultMaterial, "material preset")
	return cmd
}

func evaluateEOS(mg *eos.MieGruneisen, args []string) error {
	n := len(args) / 2
	values := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		values[i] = v
	}

	density := buffer.MustNew(n, "density")
	v := buffer.MustNew(n, "specific_volume")
	e := buffer.MustNew(n, "internal_energy")
	p := buffer.MustNew(n, "pressure")
	dpde := buffer.MustNew(n, "dpde")
	c := buffer.MustNew(n, "sound_speed")
	for i := 0; i < n; i++ {
		density.Set(i, values[2*i])
		e.Set(i, values[2*i+1])
	}
	if err := buffer.Reciprocal(v, density); err != nil {
		return err
	}

	cache, err := mg.InitCache(v)
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.PressureAndDerivative(e, p, dpde); err != nil {
		return err
	}
	soundErr := cache.PressureAndSoundSpeed(v, e, p, c)
	var serr *eos.SoundSpeedError
	if soundErr != nil && !errors.As(soundErr, &serr) {
		return soundErr
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DENSITY\tV\tEPSV\tPHASE\tENERGY\tPRESSURE\tDP/DE\tSOUND SPEED")
	params := mg.Params()
	for i := 0; i < n; i++ {
		epsv := params.Compression(v.At(i))
		phase := "release"
		if epsv > 0 {
			phase = "compression"
		}
		cs := fmt.Sprintf("%.10g", c.At(i))
		if serr != nil && i >= serr.Cell {
			cs = "-"
		}
		fmt.Fprintf(w, "%g\t%.6e\t%.6f\t%s\t%g\t%.10g\t%.10g\t%s\n",
			density.At(i), v.At(i), epsv, phase, e.At(i), p.At(i), dpde.At(i), cs)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return soundErr
}

func cubicCmd() *cobra.Command {
	var (
		inc  string
		x0   []float64
		plot bool
	)
	cmd := &cobra.Command{
		Use:   "cubic",
		Short: "solve x^3 - 2x^2 + 1 = 0 cell by cell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := newton.IncrementByName(inc)
			if err != nil {
				return err
			}
			xInit, err := buffer.FromSlice("x_ini", x0)
			if err != nil {
				return err
			}
			sol := buffer.MustNew(len(x0), "x_sol")

			residual := metrics.NewResidual()
			s := newton.New(method, newton.DefaultRelativeGap, newton.WithObserver(residual))
			res, solveErr := s.Solve(context.Background(), newton.Cubic{}, xInit, sol)
			if solveErr != nil && !errors.Is(solveErr, newton.ErrNotConverged) {
				return solveErr
			}

			st := viz.NewStyles(viz.GetTheme(theme))
			fmt.Println(st.KeyValue("increment", method.Name()))
			fmt.Println(st.KeyValue("status", st.Status(res.Status)))
			fmt.Println(st.KeyValue("iterations", strconv.Itoa(res.Iterations)))
			if err := sol.Print(os.Stdout, 10); err != nil {
				return err
			}

			if plot {
				fmt.Println()
				fmt.Println(viz.Plot(viz.Sample(newton.CubicValue, -1.5, 2.5, 80), "f(x) = x^3 - 2x^2 + 1 on [-1.5, 2.5]"))
				fmt.Println()
				fmt.Println(viz.LogPlot(residual.Values(), "max |f| per iteration", 1e-300))
			}
			return solveErr
		},
	}
	cmd.Flags().StringVar(&inc, "increment", "classical", fmt.Sprintf("increment method %v", newton.Increments()))
	cmd.Flags().Float64SliceVar(&x0, "x0", []float64{-1, 0.25, 2}, "initial values")
	cmd.Flags().BoolVar(&plot, "plot", false, "plot the cubic and the residual history")
	return cmd
}

func benchCmd() *cobra.Command {
	var (
		n      int
		cycles int
		nw     int
		inc    string
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "time repeated resolutions of the reference scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset("reference")
			cfg.Cells.Count = n
			cfg.Workers = nw
			cfg.Increment = inc
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBench(cfg, cycles)
		},
	}
	cmd.Flags().IntVar(&n, "cells", 1_000_000, "number of cells")
	cmd.Flags().IntVar(&cycles, "cycles", 10, "number of resolutions")
	cmd.Flags().IntVar(&nw, "workers", 0, "number of chunks (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&inc, "increment", "classical", "newton increment method")
	return cmd
}

func runBench(cfg *config.Config, cycles int) error {
	params, err := cfg.MaterialParams()
	if err != nil {
		return err
	}
	mg, err := eos.NewMieGruneisen(params)
	if err != nil {
		return err
	}
	opts, err := cfg.ResolverOptions()
	if err != nil {
		return err
	}
	r, err := vnr.NewResolver(mg, append(opts, vnr.WithLogger(logger))...)
	if err != nil {
		return err
	}
	in, out, err := cfg.Cells.Build()
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %d cells on %d workers\n\n", cfg.Cells.Count, r.Workers())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CYCLE\tTIME\tITERATIONS\tCELLS/SEC\t|E|")

	ctx := context.Background()
	var (
		total time.Duration
		first *buffer.Buffer
		drift bool
	)
	for i := 0; i < cycles; i++ {
		start := time.Now()
		report, err := r.Resolve(ctx, in, out)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		total += elapsed

		// every cycle resolves the same state, so the solution must not move
		if first == nil {
			if first, err = out.InternalEnergy.Clone("first_solution"); err != nil {
				return err
			}
		} else if !floats.Equal(first.Data(), out.InternalEnergy.Data()) {
			drift = true
		}
		fmt.Fprintf(w, "%d\t%v\t%d\t%.0f\t%.6g\n", i, elapsed, report.MaxIterations(),
			float64(cfg.Cells.Count)/elapsed.Seconds(), out.InternalEnergy.Norm())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if drift {
		logger.Warn("solution differs between cycles")
		fmt.Println("\nwarning: solution differs between cycles")
	}

	if cycles > 0 {
		mean := total / time.Duration(cycles)
		fmt.Printf("\nmean: %v, %.0f cells/sec\n", mean, float64(cfg.Cells.Count)/mean.Seconds())
		logger.Debug("bench finished", zap.Duration("total", total), zap.Int("cycles", cycles))
	}
	return nil
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list scenarios, materials and themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("scenarios:")
			for _, name := range config.ListPresets() {
				c := config.Presets[name].Cells
				fmt.Printf("  %-10s %d cells, %g -> %g kg/m3, %g Pa, %g J/kg\n",
					name, c.Count, c.OldDensity, c.NewDensity, c.Pressure, c.InternalEnergy)
			}
			fmt.Println("materials:")
			for _, name := range config.ListMaterials() {
				p, _ := config.GetMaterial(name)
				fmt.Printf("  %-10s rho0=%g c0=%g s1=%g gamma0=%g b=%g\n", name, p.RhoZero, p.CZero, p.S1, p.GammaZero, p.CoeffB)
			}
			fmt.Printf("increments: %v\n", newton.Increments())
			fmt.Printf("themes: %v\n", viz.ThemeNames())
			return nil
		},
	}
}
