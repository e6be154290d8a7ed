// Package parallel splits a batch of independent cells into contiguous
// chunks and runs one goroutine per chunk.
//
//   - [Split]: partitions [0, n) into at most n chunks
//   - [For]: runs chunks on an errgroup, first failure cancels the rest
//   - [ForEach]: runs every chunk and reports one error per chunk
//
// Chunks never overlap, so a callback may write its own sub-range of a
// shared buffer without synchronization.
package parallel
