package distance

import "math"

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float64) float64 {
	b = b[:len(a)]

	var s0, s1, s2, s3 float64
	i := 0
	for ; i+4 <= len(a); i += 4 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
	}
	for ; i < len(a); i++ {
		d := a[i] - b[i]
		s0 += d * d
	}

	return (s0 + s1) + (s2 + s3)
}

// Nearest returns the index of the center closest to p and the squared
// distance to it. centers holds k rows of length dim. Ties go to the lowest
// index. Returns (-1, +Inf) if centers is empty.
func Nearest(p, centers []float64, dim int) (int, float64) {
	best := -1
	bestDist := math.Inf(1)

	for j, off := 0, 0; off+dim <= len(centers); j, off = j+1, off+dim {
		d := SquaredL2(p, centers[off:off+dim])
		if d < bestDist {
			bestDist = d
			best = j
		}
	}

	return best, bestDist
}

// Cost returns the k-means cost of centers over points: the sum of squared
// distances from every point to its nearest center.
func Cost(points, centers []float64, dim int) float64 {
	var total float64
	for off := 0; off+dim <= len(points); off += dim {
		_, d := Nearest(points[off:off+dim], centers, dim)
		total += d
	}
	return total
}

// WeightedCost returns the cost of centers over the weighted subset
// (indices, weights) of points. With a coreset as the subset this estimates
// Cost(points, centers, dim).
func WeightedCost(points, centers []float64, dim int, indices []int, weights []float64) float64 {
	var total float64
	for i, idx := range indices {
		_, d := Nearest(points[idx*dim:(idx+1)*dim], centers, dim)
		total += weights[i] * d
	}
	return total
}
