// Package viz renders resolution results for the terminal.
//
//   - [Styles]: lipgloss styles derived from a [Theme]
//   - [RenderReport]: chunk-by-chunk summary of a resolution
//   - [Plot], [LogPlot]: asciigraph line plots of cell columns and
//     residual histories
//
// Colors are dropped automatically when stdout is not a terminal.
package viz
