package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
)

const (
	DefaultHeight = 10
	DefaultWidth  = 80
)

// Plot draws values as an ASCII line chart.
func Plot(values []float64, caption string) string {
	if len(values) == 0 {
		return caption + ": no data"
	}
	return asciigraph.Plot(values,
		asciigraph.Height(DefaultHeight),
		asciigraph.Width(min(DefaultWidth, max(len(values), 2))),
		asciigraph.Caption(caption),
	)
}

// LogPlot draws log10 of values, flooring non-positive entries at floor.
// It suits residual histories spanning many decades.
func LogPlot(values []float64, caption string, floor float64) string {
	logs := make([]float64, len(values))
	for i, v := range values {
		if v < floor || math.IsNaN(v) {
			v = floor
		}
		logs[i] = math.Log10(v)
	}
	return Plot(logs, fmt.Sprintf("log10 %s", caption))
}

// Sample returns a function of x sampled at n evenly spaced points of
// [lo, hi].
func Sample(fn func(float64) float64, lo, hi float64, n int) []float64 {
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	for i := range out {
		x := lo + (hi-lo)*float64(i)/float64(n-1)
		out[i] = fn(x)
	}
	return out
}
