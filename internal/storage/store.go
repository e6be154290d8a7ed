package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/vnrsolve/internal/eos"
	"github.com/san-kum/vnrsolve/internal/vnr"
)

var ErrCorruptRun = errors.New("storage: corrupt run")

// Columns is the header of cells.csv.
var Columns = []string{"cell", "old_v", "new_v", "pressure", "energy", "solution", "new_pressure", "sound_speed"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type ChunkSummary struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Iterations int     `json:"iterations"`
	Status     string  `json:"status"`
	Elapsed    float64 `json:"elapsed_s"`
	Error      string  `json:"error,omitempty"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Material  string             `json:"material"`
	Params    eos.Params         `json:"params"`
	Timestamp time.Time          `json:"timestamp"`
	Cells     int                `json:"cells"`
	Workers   int                `json:"workers"`
	Increment string             `json:"increment"`
	Policy    string             `json:"policy"`
	Elapsed   float64            `json:"elapsed_s"`
	Chunks    []ChunkSummary     `json:"chunks"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// NewMetadata summarizes a resolution report.
func NewMetadata(material string, params eos.Params, increment string, policy vnr.Policy, report *vnr.Report) RunMetadata {
	meta := RunMetadata{
		Material:  material,
		Params:    params,
		Increment: increment,
		Policy:    policy.String(),
	}
	if report == nil {
		return meta
	}
	meta.Cells = report.Cells
	meta.Workers = report.Workers
	meta.Elapsed = report.Elapsed.Seconds()
	for _, c := range report.Chunks {
		cs := ChunkSummary{
			Start:      c.Range.Start,
			End:        c.Range.End,
			Iterations: c.Iterations,
			Status:     c.Status.String(),
			Elapsed:    c.Elapsed.Seconds(),
		}
		if c.Err != nil {
			cs.Error = c.Err.Error()
		}
		meta.Chunks = append(meta.Chunks, cs)
	}
	return meta
}

// Cells is the per-cell state of a run, one slice per column.
type Cells struct {
	OldSpecificVolume []float64
	NewSpecificVolume []float64
	Pressure          []float64
	InternalEnergy    []float64
	Solution          []float64
	NewPressure       []float64
	SoundSpeed        []float64
}

// CellsFrom copies the resolver buffers.
func CellsFrom(in vnr.Input, out vnr.Output) Cells {
	clone := func(d []float64) []float64 { return append([]float64(nil), d...) }
	return Cells{
		OldSpecificVolume: clone(in.OldSpecificVolume.Data()),
		NewSpecificVolume: clone(in.NewSpecificVolume.Data()),
		Pressure:          clone(in.Pressure.Data()),
		InternalEnergy:    clone(in.InternalEnergy.Data()),
		Solution:          clone(out.InternalEnergy.Data()),
		NewPressure:       clone(out.Pressure.Data()),
		SoundSpeed:        clone(out.SoundSpeed.Data()),
	}
}

func (c Cells) Len() int { return len(c.Solution) }

func (c Cells) columns() [][]float64 {
	return [][]float64{c.OldSpecificVolume, c.NewSpecificVolume, c.Pressure, c.InternalEnergy, c.Solution, c.NewPressure, c.SoundSpeed}
}

// Column returns the named column of Columns, or nil.
func (c Cells) Column(name string) []float64 {
	for i, col := range Columns[1:] {
		if col == name {
			return c.columns()[i]
		}
	}
	return nil
}

func (s *Store) Save(meta RunMetadata, cells Cells) (string, error) {
	n := cells.Len()
	for _, col := range cells.columns() {
		if len(col) != n {
			return "", fmt.Errorf("storage: ragged cells (%d vs %d)", len(col), n)
		}
	}

	now := time.Now()
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Material, now.UnixNano())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = now
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.Metrics = finiteMetrics(meta.Metrics)
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "cells.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(Columns); err != nil {
		return "", err
	}
	cols := cells.columns()
	row := make([]string, len(Columns))
	for i := 0; i < n; i++ {
		row[0] = strconv.Itoa(i)
		for j, col := range cols {
			row[j+1] = strconv.FormatFloat(col[i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// finiteMetrics drops NaN and infinite values, which JSON cannot encode.
func finiteMetrics(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for name, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[name] = v
	}
	return out
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// List returns the stored runs, oldest first. Unreadable runs are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptRun, runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadCells(runID string) (Cells, error) {
	var cells Cells
	file, err := os.Open(filepath.Join(s.baseDir, runID, "cells.csv"))
	if err != nil {
		return cells, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(Columns)
	records, err := r.ReadAll()
	if err != nil {
		return cells, fmt.Errorf("%w: %s: %w", ErrCorruptRun, runID, err)
	}
	if len(records) == 0 {
		return cells, fmt.Errorf("%w: %s: missing header", ErrCorruptRun, runID)
	}

	n := len(records) - 1
	cols := make([][]float64, len(Columns)-1)
	for j := range cols {
		cols[j] = make([]float64, n)
	}
	for i, record := range records[1:] {
		for j := range cols {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return cells, fmt.Errorf("%w: %s: row %d: %w", ErrCorruptRun, runID, i+1, err)
			}
			cols[j][i] = v
		}
	}

	return Cells{
		OldSpecificVolume: cols[0],
		NewSpecificVolume: cols[1],
		Pressure:          cols[2],
		InternalEnergy:    cols[3],
		Solution:          cols[4],
		NewPressure:       cols[5],
		SoundSpeed:        cols[6],
	}, nil
}
