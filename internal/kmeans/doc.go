// Package kmeans implements D² seeding and Lloyd refinement over a dataset.
//
// A run proceeds as
//
//	Seed ──► Assign ──► (recenter ──► reseed empty ──► Assign)* ──► Result
//
// and stops when the relative decrease of the total cost drops below the
// configured tolerance or the iteration cap is hit. A cluster emptied by the
// last assignment gets one more reseed and assignment before the result is
// returned.
//
// Seeding is either full D² sampling (SeedingD2) or k-means++ over a random
// one-dimensional projection (SeedingProjected), whose partition becomes the
// starting assignment. Per-point work (nearest
// center lookup, distance updates during seeding) runs in parallel over
// fixed chunks; recentering runs in parallel over clusters. All buffers are
// taken from an arena before the first round.
//
// Results are reproducible for a given random source: chunk boundaries and
// summation order never depend on the number of workers.
package kmeans
