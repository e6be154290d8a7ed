// Package newton implements a vectorized Newton-Raphson root finder for
// problems with one unknown per cell.
//
// The solver is assembled from three pluggable parts:
//
//   - [Function]: evaluates the residual F(x) and its derivative F'(x)
//   - [Increment]: turns (x, F, F') into a step Δx
//     ([Classical], [Damped], [SignPreserving])
//   - [Criterion]: marks converged cells ([RelativeGap])
//
// Cells are independent: every iteration evaluates the full vector, but a
// cell's step is applied only while it is not yet converged, and once a
// cell is flagged converged it stays converged.
//
// # Example
//
//	s := newton.New(newton.Damped{}, newton.DefaultRelativeGap)
//	res, err := s.Solve(ctx, newton.Cubic{}, x0, sol)
//
// # Thread Safety
//
// A [Solver] holds no per-solve state and may be shared by concurrent
// callers, provided its observers are themselves safe for concurrent use.
package newton
