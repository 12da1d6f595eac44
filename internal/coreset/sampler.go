package coreset

import (
	"context"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/prone/internal/parallel"
)

// Sample draws len(indices) point indices independently with replacement,
// index i with probability probs[i], and sets weights[d] = 1/(m*probs[idx]).
// probs[d] of the draw is written to drawn.
//
// cdf (len n) is scratch space. Draws are split into chunks; chunk c uses
// its own PCG stream derived from one value of rng, so the outcome depends
// on rng and the chunk size only.
func Sample(ctx context.Context, probs []float64, pc parallel.Config, rng *rand.Rand, cdf []float64, indices []int, weights, drawn []float64) error {
	n := len(probs)
	m := len(indices)

	floats.CumSum(cdf, probs)
	total := cdf[n-1]
	fm := float64(m)

	base := rng.Uint64()

	return pc.ForChunks(ctx, m, func(chunk, lo, hi int) error {
		crng := rand.New(rand.NewPCG(base, uint64(chunk)))
		for d := lo; d < hi; d++ {
			u := crng.Float64() * total
			idx := sort.Search(n, func(j int) bool { return cdf[j] > u })
			if idx == n {
				idx = lastPositive(probs)
			}
			indices[d] = idx
			drawn[d] = probs[idx]
			weights[d] = 1 / (fm * probs[idx])
		}
		return nil
	})
}

// lastPositive guards against u rounding up to the total mass.
func lastPositive(probs []float64) int {
	for i := len(probs) - 1; i >= 0; i-- {
		if probs[i] > 0 {
			return i
		}
	}
	return len(probs) - 1
}
