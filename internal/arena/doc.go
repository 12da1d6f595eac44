// Package arena hands out the preallocated buffers of a clustering run.
//
// Sizes are known before the first round (n points, k centers, d
// dimensions), so every per-point and per-center vector is allocated once
// and indexed by position afterwards. Each allocation is charged against a
// MemoryAcquirer (normally *resource.Controller) and the whole reservation
// is returned with a single Free when the run ends.
//
// An Arena is not safe for concurrent allocation. The buffers it returns
// are plain slices and may be written concurrently on disjoint ranges.
package arena
