// Package testutil provides testing utilities for prone.
//
// This package is intended for use in tests and benchmarks only.
// It provides reproducible point sets with known cluster structure.
//
// # Random Point Generation
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformPoints(1000, 8)        // uniform [0, 1)
//	pts, labels := rng.Blobs(1000, 8, 5, 0.1) // 5 Gaussian blobs
//
// # Reference Statistics
//
//	mean := testutil.Mean(pts)
package testutil
