// Package distance evaluates squared Euclidean distances between points and
// center sets.
//
// Points and centers are float64 slices; a center set is stored row-major
// in one flat slice of length k*dim. Every function is pure and safe to
// call concurrently.
//
// # Usage
//
//	d := distance.SquaredL2(a, b)
//	idx, d := distance.Nearest(point, centers, dim)
//	total := distance.Cost(points, centers, dim)
//	approx := distance.WeightedCost(points, centers, dim, coreset.Indices, coreset.Weights)
package distance
