package metrics

import (
	"sync"

	"github.com/san-kum/vnrsolve/internal/newton"
)

// Iterations counts solver iterations over all chunks.
type Iterations struct {
	mu    sync.Mutex
	calls int
	max   int
}

func NewIterations() *Iterations {
	return &Iterations{}
}

func (m *Iterations) Name() string { return "iterations" }

func (m *Iterations) OnIteration(it newton.Iteration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if it.Index+1 > m.max {
		m.max = it.Index + 1
	}
}

// Value is the deepest iteration count reached by any chunk.
func (m *Iterations) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.max)
}

// Total is the number of iterations summed over chunks.
func (m *Iterations) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Iterations) Reset() {
	m.mu.Lock()
	m.calls, m.max = 0, 0
	m.mu.Unlock()
}

// Set fans iterations out to several metrics.
type Set []Metric

func (s Set) OnIteration(it newton.Iteration) {
	for _, m := range s {
		m.OnIteration(it)
	}
}

func (s Set) Values() map[string]float64 {
	values := make(map[string]float64, len(s))
	for _, m := range s {
		values[m.Name()] = m.Value()
	}
	return values
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Default returns the metrics recorded with every stored run.
func Default() Set {
	return Set{NewResidual(), NewStep(), NewIterations()}
}
