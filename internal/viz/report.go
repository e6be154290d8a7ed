package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/vnrsolve/internal/newton"
	"github.com/san-kum/vnrsolve/internal/vnr"
)

// RenderReport summarizes a resolution in a bordered panel.
func RenderReport(s Styles, title string, report *vnr.Report) string {
	if report == nil {
		return s.Panel.Render(s.Title.Render(title) + "\n" + s.Subtle.Render("no report"))
	}

	var b strings.Builder
	b.WriteString(s.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(s.KeyValue("cells", fmt.Sprint(report.Cells)))
	b.WriteString("  ")
	b.WriteString(s.KeyValue("chunks", fmt.Sprint(report.Workers)))
	b.WriteString("  ")
	b.WriteString(s.KeyValue("elapsed", report.Elapsed.String()))
	b.WriteString("\n")

	converged := 0
	for i, c := range report.Chunks {
		if c.Status == newton.Converged && c.Err == nil {
			converged++
		}
		line := fmt.Sprintf("%3d %-14s %4d it  %s", i, c.Range, c.Iterations, s.Status(c.Status))
		if c.Err != nil {
			line += "  " + s.Fail.Render(c.Err.Error())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(report.Chunks) > 1 {
		iters := make([]float64, len(report.Chunks))
		for i, c := range report.Chunks {
			iters[i] = float64(c.Iterations)
		}
		b.WriteString(s.KeyValue("iterations", Sparkline(iters, len(iters))))
		b.WriteString("\n")
	}

	frac := 0.0
	if len(report.Chunks) > 0 {
		frac = float64(converged) / float64(len(report.Chunks))
	}
	b.WriteString(s.ProgressBar(frac, 30))
	b.WriteString(fmt.Sprintf(" %d/%d chunks converged", converged, len(report.Chunks)))

	return s.Panel.Render(b.String())
}
