// Package parallel runs data-parallel loops over index ranges.
//
// The index space [0,n) is cut into fixed-size chunks. Chunk boundaries only
// depend on n and the chunk size, never on the worker count, so any
// per-chunk state (partial sums, random streams) is reproducible no matter
// how many goroutines execute the loop.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the number of indices handed to a worker at once.
const DefaultChunkSize = 4096

// Config controls how loops are scheduled.
type Config struct {
	// Workers is the maximum number of concurrently running chunks.
	// If <= 0, runtime.GOMAXPROCS(0) is used.
	Workers int

	// ChunkSize is the number of indices per chunk.
	// If <= 0, DefaultChunkSize is used.
	ChunkSize int
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

func (c Config) chunkSize() int {
	if c.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}

// NumChunks returns the number of chunks [0,n) is split into.
func (c Config) NumChunks(n int) int {
	if n <= 0 {
		return 0
	}
	size := c.chunkSize()
	return (n + size - 1) / size
}

// For calls fn for every chunk [lo,hi) of [0,n).
// fn must only write to state owned by its own range.
func (c Config) For(ctx context.Context, n int, fn func(lo, hi int) error) error {
	return c.ForChunks(ctx, n, func(_, lo, hi int) error {
		return fn(lo, hi)
	})
}

// ForChunks is like For but also passes the chunk number to fn.
// It returns after every started chunk has finished, which makes it a
// barrier between consecutive loops.
func (c Config) ForChunks(ctx context.Context, n int, fn func(chunk, lo, hi int) error) error {
	chunks := c.NumChunks(n)
	if chunks == 0 {
		return ctx.Err()
	}

	size := c.chunkSize()
	workers := c.workers()

	if chunks == 1 || workers == 1 {
		for chunk := 0; chunk < chunks; chunk++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			lo := chunk * size
			if err := fn(chunk, lo, min(lo+size, n)); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for chunk := 0; chunk < chunks; chunk++ {
		lo := chunk * size
		hi := min(lo+size, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(chunk, lo, hi)
		})
	}

	return g.Wait()
}
