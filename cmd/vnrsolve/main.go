package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/vnrsolve/internal/config"
	"github.com/san-kum/vnrsolve/internal/eos"
	"github.com/san-kum/vnrsolve/internal/metrics"
	"github.com/san-kum/vnrsolve/internal/storage"
	"github.com/san-kum/vnrsolve/internal/viz"
	"github.com/san-kum/vnrsolve/internal/vnr"
)

var (
	dataDir string
	verbose bool
	theme   string
	logger  = zap.NewNop()

	// solve
	configFile string
	preset     string
	material   string
	workers    int
	increment  string
	maxIter    int
	policy     string
	cells      int
	oldDensity float64
	newDensity float64
	pressure   float64
	energy     float64
	noSave     bool
	trace      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "vnrsolve",
		Short:         "von Neumann-Richtmyer internal energy solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".vnrsolve", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "default", fmt.Sprintf("color theme %v", viz.ThemeNames()))

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "resolve a batch of cells",
		Args:  cobra.NoArgs,
		RunE:  runSolve,
	}
	solveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	solveCmd.Flags().StringVar(&material, "material", config.DefaultMaterial, "material preset")
	solveCmd.Flags().IntVar(&workers, "workers", 0, "number of chunks (0 = GOMAXPROCS)")
	solveCmd.Flags().StringVar(&increment, "increment", config.DefaultIncrement, "newton increment method")
	solveCmd.Flags().IntVar(&maxIter, "max-iter", 40, "iteration cap")
	solveCmd.Flags().StringVar(&policy, "policy", config.DefaultPolicy, "chunk failure policy (abort, continue)")
	solveCmd.Flags().IntVar(&cells, "cells", config.DefaultCells, "number of cells")
	solveCmd.Flags().Float64Var(&oldDensity, "old-density", config.DefaultOldDensity, "density before the step (kg/m3)")
	solveCmd.Flags().Float64Var(&newDensity, "new-density", config.DefaultNewDensity, "density after the step (kg/m3)")
	solveCmd.Flags().Float64Var(&pressure, "pressure", config.DefaultPressure, "pressure before the step (Pa)")
	solveCmd.Flags().Float64Var(&energy, "energy", config.DefaultEnergy, "internal energy before the step (J/kg)")
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	solveCmd.Flags().BoolVar(&trace, "trace", false, "plot the residual history")

	rootCmd.AddCommand(solveCmd, eosCmd(), cubicCmd(), benchCmd(), listCmd(), showCmd(), exportCmd(), presetsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveConfig merges preset, config file and flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("material") {
		cfg.Material = material
		cfg.Params = nil
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("increment") {
		cfg.Increment = increment
	}
	if flags.Changed("max-iter") {
		cfg.MaxIterations = maxIter
	}
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	if flags.Changed("cells") {
		cfg.Cells.Count = cells
	}
	if flags.Changed("old-density") {
		cfg.Cells.OldDensity = oldDensity
	}
	if flags.Changed("new-density") {
		cfg.Cells.NewDensity = newDensity
	}
	if flags.Changed("pressure") {
		cfg.Cells.Pressure = pressure
	}
	if flags.Changed("energy") {
		cfg.Cells.InternalEnergy = energy
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	params, err := cfg.MaterialParams()
	if err != nil {
		return err
	}
	mg, err := eos.NewMieGruneisen(params)
	if err != nil {
		return err
	}

	in, out, err := cfg.Cells.Build()
	if err != nil {
		return err
	}

	opts, err := cfg.ResolverOptions()
	if err != nil {
		return err
	}
	observed := metrics.Default()
	opts = append(opts, vnr.WithLogger(logger), vnr.WithObserver(observed))

	r, err := vnr.NewResolver(mg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("solve started",
		zap.String("material", cfg.Material),
		zap.Int("cells", cfg.Cells.Count),
		zap.Int("workers", r.Workers()),
		zap.String("increment", r.Solver().Increment().Name()),
		zap.String("criterion", r.Solver().Criterion().Name()))

	report, resolveErr := r.Resolve(ctx, in, out)

	s := viz.NewStyles(viz.GetTheme(theme))
	fmt.Println(viz.RenderReport(s, fmt.Sprintf("%s %s", cfg.Material, mg.Name()), report))

	if report != nil {
		fmt.Println(s.KeyValue("solution[0]", fmt.Sprintf("%.10g J/kg", out.InternalEnergy.At(0))))
		fmt.Println(s.KeyValue("pressure[0]", fmt.Sprintf("%.10g Pa", out.Pressure.At(0))))
		fmt.Println(s.KeyValue("sound speed[0]", fmt.Sprintf("%.10g m/s", out.SoundSpeed.At(0))))
		if !out.InternalEnergy.IsFinite() || !out.SoundSpeed.IsFinite() {
			fmt.Println(s.Fail.Render("solution contains non-finite values"))
			logger.Warn("non-finite solution", zap.Error(resolveErr))
		}
		if resolveErr == nil && !out.InternalEnergy.Uniform(out.InternalEnergy.At(0), 1e-12) {
			fmt.Println(s.Subtle.Render("solution is not uniform across cells"))
		}
	}

	if trace {
		if h, ok := observed[0].(*metrics.History); ok {
			fmt.Println()
			fmt.Println(viz.LogPlot(h.Values(), "max |F| per iteration", 1e-300))
		}
	}

	if report != nil && !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return errors.Join(resolveErr, err)
		}
		pol, _ := vnr.ParsePolicy(cfg.Policy)
		meta := storage.NewMetadata(cfg.Material, params, cfg.Increment, pol, report)
		meta.Metrics = observed.Values()
		runID, err := st.Save(meta, storage.CellsFrom(in, out))
		if err != nil {
			return errors.Join(resolveErr, err)
		}
		fmt.Println(s.KeyValue("run id", runID))
	}

	logger.Info("solve finished", zap.Duration("elapsed", elapsed(report)), zap.Error(resolveErr))
	return resolveErr
}

func elapsed(r *vnr.Report) time.Duration {
	if r == nil {
		return 0
	}
	return r.Elapsed
}
