// Package vnr solves the von Neumann-Richtmyer internal energy equation
// for a batch of cells.
//
// For every cell the new internal energy e satisfies
//
//	e + (P(v_new, e) + P_old)·(v_new - v_old)/2 - e_old = 0
//
// where P is given by an equation of state. [Parameters] exposes this
// residual to the newton package; [Resolver] splits the batch into chunks,
// solves each chunk on its own goroutine with a private EOS cache, then
// recomputes the pressure and sound speed at the converged energy.
//
// # Example
//
//	r, _ := vnr.NewResolver(mg, vnr.WithWorkers(4))
//	report, err := r.Resolve(ctx, vnr.Input{...}, vnr.Output{...})
package vnr
