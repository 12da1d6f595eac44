package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("model: invalid value")

// Clustering is a partition of n points into k clusters.
type Clustering struct {
	// Centers holds k rows of the same dimension.
	Centers [][]float64 `json:"centers"`
	// Assignment maps point index to center index.
	Assignment []int `json:"assignment"`
	// Costs maps point index to its squared distance to its center.
	Costs []float64 `json:"costs,omitempty"`
	// ClusterSizes counts the points assigned to each center.
	ClusterSizes []int `json:"cluster_sizes,omitempty"`
	// TotalCost is the sum of Costs.
	TotalCost float64 `json:"total_cost"`

	Iterations int  `json:"iterations"`
	Converged  bool `json:"converged"`
	Reseeds    int  `json:"reseeds,omitempty"`
	// History is the total cost after seeding followed by the cost after
	// every Lloyd round.
	History []float64 `json:"history,omitempty"`
}

// K returns the number of centers.
func (c *Clustering) K() int { return len(c.Centers) }

// Dim returns the dimension of the centers (0 if there are none).
func (c *Clustering) Dim() int {
	if len(c.Centers) == 0 {
		return 0
	}
	return len(c.Centers[0])
}

// CenterMatrix returns the centers as a k x dim gonum matrix.
func (c *Clustering) CenterMatrix() *mat.Dense {
	k, dim := c.K(), c.Dim()
	if k == 0 || dim == 0 {
		return nil
	}
	data := make([]float64, 0, k*dim)
	for _, row := range c.Centers {
		data = append(data, row...)
	}
	return mat.NewDense(k, dim, data)
}

// Members returns the indices of the points assigned to center j.
func (c *Clustering) Members(j int) *roaring.Bitmap {
	bm := roaring.New()
	for i, a := range c.Assignment {
		if a == j {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// Partition returns the members of every center in one pass.
func (c *Clustering) Partition() []*roaring.Bitmap {
	parts := make([]*roaring.Bitmap, c.K())
	for j := range parts {
		parts[j] = roaring.New()
	}
	for i, a := range c.Assignment {
		parts[a].Add(uint32(i))
	}
	return parts
}

// Validate checks the clustering against a dataset of n points.
func (c *Clustering) Validate(n int) error {
	if len(c.Assignment) != n {
		return fmt.Errorf("%w: %d assignments for %d points", ErrInvalid, len(c.Assignment), n)
	}
	dim := c.Dim()
	for j, row := range c.Centers {
		if len(row) != dim {
			return fmt.Errorf("%w: center %d has dimension %d, expected %d", ErrInvalid, j, len(row), dim)
		}
	}
	for i, a := range c.Assignment {
		if a < 0 || a >= c.K() {
			return fmt.Errorf("%w: point %d assigned to center %d of %d", ErrInvalid, i, a, c.K())
		}
	}
	return nil
}

// Coreset is a weighted sample of point indices. Indices may repeat.
type Coreset struct {
	Indices []int     `json:"indices"`
	Weights []float64 `json:"weights"`
	// Probabilities holds the sampling probability of each drawn index,
	// so Weights[d] == 1/(len(Indices)*Probabilities[d]). Empty after Compact.
	Probabilities []float64 `json:"probabilities,omitempty"`

	// Reference is the clustering the sample was drawn against.
	Reference *Clustering `json:"-"`
}

// Len returns the number of draws.
func (c *Coreset) Len() int { return len(c.Indices) }

// TotalWeight returns the sum of the weights, an estimate of the number
// of points in the full dataset.
func (c *Coreset) TotalWeight() float64 {
	return floats.Sum(c.Weights)
}

// Distinct returns the set of drawn point indices.
func (c *Coreset) Distinct() *roaring.Bitmap {
	bm := roaring.New()
	for _, idx := range c.Indices {
		bm.Add(uint32(idx))
	}
	return bm
}

// Compact merges repeated draws of the same index by summing their
// weights. Indices of the result are strictly ascending. Weighted sums over
// the result equal weighted sums over c.
func (c *Coreset) Compact() *Coreset {
	distinct := c.Distinct()
	size := int(distinct.GetCardinality())

	out := &Coreset{
		Indices:   make([]int, 0, size),
		Weights:   make([]float64, size),
		Reference: c.Reference,
	}

	it := distinct.Iterator()
	for it.HasNext() {
		out.Indices = append(out.Indices, int(it.Next()))
	}

	for d, idx := range c.Indices {
		// Rank counts the set members <= idx.
		pos := int(distinct.Rank(uint32(idx))) - 1
		out.Weights[pos] += c.Weights[d]
	}

	return out
}

// Points gathers the sampled rows of points, in draw order.
func (c *Coreset) Points(points [][]float64) [][]float64 {
	out := make([][]float64, len(c.Indices))
	for d, idx := range c.Indices {
		out[d] = points[idx]
	}
	return out
}

// Validate checks the coreset against a dataset of n points.
func (c *Coreset) Validate(n int) error {
	if len(c.Indices) != len(c.Weights) {
		return fmt.Errorf("%w: %d indices but %d weights", ErrInvalid, len(c.Indices), len(c.Weights))
	}
	if len(c.Probabilities) != 0 && len(c.Probabilities) != len(c.Indices) {
		return fmt.Errorf("%w: %d indices but %d probabilities", ErrInvalid, len(c.Indices), len(c.Probabilities))
	}
	for d, idx := range c.Indices {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalid, idx, n)
		}
		if w := c.Weights[d]; !(w > 0) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %v at draw %d", ErrInvalid, w, d)
		}
	}
	return nil
}
