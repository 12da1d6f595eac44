package testutil

import (
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformPoints generates random points with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformPoints(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	points := make([][]float64, num)

	for i := range num {
		p := data[i*dim : (i+1)*dim]
		for j := range p {
			p[j] = r.rand.Float64()
		}
		points[i] = p
	}

	return points
}

// Blobs generates num points around clusters centroids drawn uniformly from
// [-10, 10)^dim, with Gaussian noise of standard deviation spread. Point i
// belongs to blob i%clusters; the returned labels record that.
func (r *RNG) Blobs(num, dim, clusters int, spread float64) ([][]float64, []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	centroids := make([][]float64, clusters)
	for c := range centroids {
		centroids[c] = make([]float64, dim)
		for j := range dim {
			centroids[c][j] = r.rand.Float64()*20 - 10
		}
	}

	data := make([]float64, num*dim)
	points := make([][]float64, num)
	labels := make([]int, num)

	for i := range num {
		c := i % clusters
		p := data[i*dim : (i+1)*dim]
		for j := range dim {
			p[j] = centroids[c][j] + r.rand.NormFloat64()*spread
		}
		points[i] = p
		labels[i] = c
	}

	return points, labels
}

// SkewedBlobs is like Blobs but cluster c receives a share of the points
// proportional to 2^-c, so the first cluster dominates and the last ones
// hold only a handful of points. Every cluster gets at least one point.
func (r *RNG) SkewedBlobs(num, dim, clusters int, spread float64) ([][]float64, []int) {
	points, _ := r.Blobs(num, dim, clusters, 0)

	r.mu.Lock()
	defer r.mu.Unlock()

	centroids := make([][]float64, clusters)
	for c := range clusters {
		centroids[c] = append([]float64(nil), points[c]...)
	}

	labels := make([]int, num)
	for i := range num {
		c := 0
		if i < clusters {
			c = i
		} else {
			for c < clusters-1 && r.rand.Float64() < 0.5 {
				c++
			}
		}
		for j := range dim {
			points[i][j] = centroids[c][j] + r.rand.NormFloat64()*spread
		}
		labels[i] = c
	}

	return points, labels
}

// Mean returns the coordinate-wise mean of points.
func Mean(points [][]float64) []float64 {
	if len(points) == 0 {
		return nil
	}

	dim := len(points[0])
	mean := make([]float64, dim)
	col := make([]float64, len(points))

	for j := range dim {
		for i, p := range points {
			col[i] = p[j]
		}
		mean[j] = stat.Mean(col, nil)
	}

	return mean
}
