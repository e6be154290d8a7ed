// Package buffer provides the labeled float64 vector used by every numerical
// component of the solver.
//
// A [Buffer] either owns its storage (created with [New]) or is a view over
// storage owned by someone else ([FromSlice], [Buffer.View]). Views are how a
// large cell batch is split into per-worker chunks without copying:
//
//	energy, _ := buffer.New(n, "internal energy")
//	chunk, _ := energy.View("chunk energy", 0, n/2)
//	chunk.Fill(1.325e4) // writes through to energy
//
// A buffer with zero size is the cleared state; [Buffer.Clear] puts a buffer
// in that state and is safe to call more than once.
//
// # Scratch storage
//
// [Pool] recycles scratch buffers between solves. It is safe for concurrent
// use, so one pool can back every worker of a batch resolution.
package buffer
