package metrics

import (
	"sync"

	"github.com/san-kum/vnrsolve/internal/newton"
)

// Metric is a solver observer summarized by a single value. Metrics are
// fed from every chunk goroutine and are safe for concurrent use.
type Metric interface {
	newton.Observer
	Name() string
	Value() float64
	Reset()
}

// History keeps, for every iteration index, the largest value seen across
// all chunks.
type History struct {
	name    string
	extract func(newton.Iteration) float64

	mu     sync.Mutex
	values []float64
}

// NewResidual tracks max |F| per iteration.
func NewResidual() *History {
	return &History{
		name:    "residual",
		extract: func(it newton.Iteration) float64 { return it.F.MaxAbs() },
	}
}

// NewStep tracks max |Δx| per iteration.
func NewStep() *History {
	return &History{
		name:    "step",
		extract: func(it newton.Iteration) float64 { return it.Delta.MaxAbs() },
	}
}

func (h *History) Name() string { return h.name }

func (h *History) OnIteration(it newton.Iteration) {
	v := h.extract(it)

	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.values) <= it.Index {
		h.values = append(h.values, 0)
	}
	if v > h.values[it.Index] {
		h.values[it.Index] = v
	}
}

// Value is the entry of the last iteration.
func (h *History) Value() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.values) == 0 {
		return 0
	}
	return h.values[len(h.values)-1]
}

func (h *History) Values() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]float64(nil), h.values...)
}

func (h *History) Reset() {
	h.mu.Lock()
	h.values = h.values[:0]
	h.mu.Unlock()
}
