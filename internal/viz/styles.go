package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/vnrsolve/internal/newton"
)

type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Subtle lipgloss.Style
	OK     lipgloss.Style
	Warn   lipgloss.Style
	Fail   lipgloss.Style
	Panel  lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),
		Label: lipgloss.NewStyle().
			Foreground(t.Muted),
		Value: lipgloss.NewStyle().
			Foreground(t.Text).
			Bold(true),
		Subtle: lipgloss.NewStyle().
			Foreground(t.Muted).
			Italic(true),
		OK: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Success),
		Warn: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Warning),
		Fail: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Error),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
	}
}

// Status renders a solver status with its color.
func (s Styles) Status(st newton.Status) string {
	switch st {
	case newton.Converged:
		return s.OK.Render(st.String())
	case newton.MaxIterExceeded:
		return s.Fail.Render(st.String())
	default:
		return s.Warn.Render(st.String())
	}
}

// KeyValue renders "label: value".
func (s Styles) KeyValue(label, value string) string {
	return s.Label.Render(label+":") + " " + s.Value.Render(value)
}

// ProgressBar renders fraction in [0, 1] as a bar of the given width.
func (s Styles) ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if fraction >= 1 {
		return s.OK.Render(bar)
	} else if fraction > 0.5 {
		return s.Warn.Render(bar)
	}
	return s.Fail.Render(bar)
}

// Sparkline renders a one-line trend of values.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		result.WriteRune(chars[idx])
	}
	return result.String()
}

func (s Styles) Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return s.Subtle.Render(left + " ◆ " + right)
}
