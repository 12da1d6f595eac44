package kmeans

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/hupe1980/prone/distance"
	"github.com/hupe1980/prone/internal/dataset"
	"github.com/hupe1980/prone/internal/parallel"
)

// Seed writes k initial centers into centers (k*dim) by D² sampling: the
// first center is uniform, every further center is drawn with probability
// proportional to its squared distance to the nearest chosen center.
//
// minDist (len n) and changed (len n) are scratch buffers. When every
// remaining distance is zero (fewer distinct points than k) the next
// center is drawn uniformly, so centers may repeat.
func Seed(ctx context.Context, ds *dataset.Dataset, k int, centers, minDist []float64, changed []bool, pc parallel.Config, rng *rand.Rand) error {
	n, dim := ds.Len(), ds.Dim()

	first := rng.IntN(n)
	copy(centers[:dim], ds.Row(first))

	err := pc.For(ctx, n, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			minDist[i] = distance.SquaredL2(ds.Row(i), centers[:dim])
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Sum tree over D² weights; Take is proportional to weight and Reweight
	// keeps the tree in sync as distances shrink.
	tree := sampleuv.NewWeighted(minDist, rng)

	for c := 1; c < k; c++ {
		idx, ok := tree.Take()
		if !ok {
			idx = rng.IntN(n)
		}

		center := centers[c*dim : (c+1)*dim]
		copy(center, ds.Row(idx))

		// The distance updates for one pick are independent per point; the
		// picks themselves form a sequential chain.
		err := pc.For(ctx, n, func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				changed[i] = false
				if minDist[i] == 0 {
					continue
				}
				if d := distance.SquaredL2(ds.Row(i), center); d < minDist[i] {
					minDist[i] = d
					changed[i] = true
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		for i, ok := range changed {
			if ok {
				tree.Reweight(i, minDist[i])
			}
		}
	}

	return nil
}
