package kmeans

import (
	"context"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/prone/distance"
	"github.com/hupe1980/prone/internal/dataset"
	"github.com/hupe1980/prone/internal/parallel"
)

// Assign writes the nearest center of every point into assignment and the
// squared distance to it into costs, and returns the total cost.
//
// partials receives one subtotal per chunk (len pc.NumChunks(n)); it may be
// nil, in which case it is allocated. Subtotals are summed in chunk order,
// so the total does not depend on the worker count.
func Assign(ctx context.Context, ds *dataset.Dataset, centers []float64, assignment []int, costs []float64, pc parallel.Config, partials []float64) (float64, error) {
	dim := ds.Dim()
	if partials == nil {
		partials = make([]float64, pc.NumChunks(ds.Len()))
	}

	err := pc.ForChunks(ctx, ds.Len(), func(chunk, lo, hi int) error {
		var sum float64
		for i := lo; i < hi; i++ {
			j, d := distance.Nearest(ds.Row(i), centers, dim)
			assignment[i] = j
			costs[i] = d
			sum += d
		}
		partials[chunk] = sum
		return nil
	})
	if err != nil {
		return 0, err
	}

	return floats.Sum(partials), nil
}
