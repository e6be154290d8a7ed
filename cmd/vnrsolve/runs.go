package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/vnrsolve/internal/buffer"
	"github.com/san-kum/vnrsolve/internal/storage"
	"github.com/san-kum/vnrsolve/internal/viz"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMATERIAL\tTIME\tCELLS\tWORKERS\tINCREMENT\tITERS\tFAILED\tELAPSED")

	for _, run := range runs {
		iters, failed := 0, 0
		for _, c := range run.Chunks {
			iters = max(iters, c.Iterations)
			if c.Error != "" {
				failed++
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%d\t%d\t%.3fs\n",
			run.ID,
			run.Material,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Cells,
			run.Workers,
			run.Increment,
			iters,
			failed,
			run.Elapsed,
		)
	}

	return w.Flush()
}

func showCmd() *cobra.Command {
	var (
		column string
		chunk  int
	)
	cmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print and plot a column of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRun(args[0], column, chunk)
		},
	}
	cmd.Flags().StringVar(&column, "column", "solution", fmt.Sprintf("column to show %v", storage.Columns[1:]))
	cmd.Flags().IntVar(&chunk, "chunk", 5, "cells printed at each end")
	return cmd
}

func showRun(runID, column string, chunk int) error {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cells, err := st.LoadCells(runID)
	if err != nil {
		return err
	}

	data := cells.Column(column)
	if data == nil {
		return fmt.Errorf("unknown column: %s (available: %v)", column, storage.Columns[1:])
	}
	if len(data) == 0 {
		return fmt.Errorf("no data to show")
	}

	s := viz.NewStyles(viz.GetTheme(theme))
	fmt.Println(s.KeyValue("run", meta.ID))
	fmt.Println(s.KeyValue("material", meta.Material))
	fmt.Println(s.KeyValue("cells", fmt.Sprint(meta.Cells)))
	for name, v := range meta.Metrics {
		fmt.Println(s.KeyValue(name, fmt.Sprintf("%.6g", v)))
	}
	fmt.Println(s.Separator(60))

	b, err := buffer.FromSlice(column, data)
	if err != nil {
		return err
	}
	if err := b.Print(os.Stdout, chunk); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.Plot(data, column+" by cell"))
	return nil
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run to JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			cells, err := st.LoadCells(args[0])
			if err != nil {
				return err
			}
			return storage.ExportJSON(os.Stdout, *meta, cells)
		},
	}
}
