package coreset

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/prone/internal/parallel"
)

var (
	// ErrZeroCost is returned when every point coincides with its center.
	ErrZeroCost = errors.New("coreset: total clustering cost is zero")

	// ErrEmptyCluster is returned when a cluster of the reference clustering has no points.
	ErrEmptyCluster = errors.New("coreset: empty cluster in reference clustering")

	// ErrInvalidDistribution is returned when the sensitivities cannot be normalized.
	ErrInvalidDistribution = errors.New("coreset: sensitivities are not a valid distribution")
)

// Rule selects the sensitivity bound.
type Rule int

const (
	// RuleBlend scores a point as Alpha*cost/totalCost + Beta/|C|.
	RuleBlend Rule = iota

	// RuleClusterBound scores a point with the bound
	//
	//	A*cost/avg + 2*A*cost(C)/(avg*|C|) + 4n/|C|,  A = 16(ln k + 2), avg = totalCost/n
	//
	// which also charges every point for the spread of its whole cluster.
	RuleClusterBound
)

func (r Rule) String() string {
	switch r {
	case RuleBlend:
		return "blend"
	case RuleClusterBound:
		return "cluster-bound"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// Scoring configures Sensitivities.
type Scoring struct {
	Rule Rule

	// Alpha and Beta weight the cost and cluster-size terms of RuleBlend.
	Alpha float64
	Beta  float64
}

// DefaultScoring weights both terms of RuleBlend equally.
var DefaultScoring = Scoring{Rule: RuleBlend, Alpha: 1, Beta: 1}

// Reference is the clustering sensitivities are computed against.
type Reference struct {
	Costs        []float64 // per point squared distance to its center
	Assignment   []int
	ClusterSizes []int
	TotalCost    float64
}

// Scratch holds the working buffers of Sensitivities. Nil buffers are
// allocated on demand.
type Scratch struct {
	Partials []float64 // one subtotal per chunk, len pc.NumChunks(n)
	Clusters []float64 // per-cluster terms of RuleClusterBound, len 2k
}

// Sensitivities writes the normalized sensitivity of every point into out
// (len n). The values sum to one.
func Sensitivities(ctx context.Context, ref Reference, sc Scoring, pc parallel.Config, out []float64, scratch Scratch) error {
	n := len(ref.Costs)
	k := len(ref.ClusterSizes)

	if ref.TotalCost <= 0 {
		return ErrZeroCost
	}
	for j, size := range ref.ClusterSizes {
		if size == 0 {
			return fmt.Errorf("%w: cluster %d", ErrEmptyCluster, j)
		}
	}

	score, err := scorer(ref, sc, n, k, scratch.Clusters)
	if err != nil {
		return err
	}

	partials := scratch.Partials
	if partials == nil {
		partials = make([]float64, pc.NumChunks(n))
	}

	err = pc.ForChunks(ctx, n, func(chunk, lo, hi int) error {
		var sum float64
		for i := lo; i < hi; i++ {
			out[i] = score(i)
			sum += out[i]
		}
		partials[chunk] = sum
		return nil
	})
	if err != nil {
		return err
	}

	total := floats.Sum(partials)
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		return fmt.Errorf("%w: sum %v", ErrInvalidDistribution, total)
	}

	return pc.For(ctx, n, func(lo, hi int) error {
		floats.Scale(1/total, out[lo:hi])
		return nil
	})
}

func scorer(ref Reference, sc Scoring, n, k int, clusters []float64) (func(i int) float64, error) {
	switch sc.Rule {
	case RuleBlend:
		alpha := sc.Alpha / ref.TotalCost
		return func(i int) float64 {
			return alpha*ref.Costs[i] + sc.Beta/float64(ref.ClusterSizes[ref.Assignment[i]])
		}, nil

	case RuleClusterBound:
		a := 16 * (math.Log(float64(k)) + 2)
		avg := ref.TotalCost / float64(n)

		if clusters == nil {
			clusters = make([]float64, 2*k)
		}
		clusterCosts, perCluster := clusters[:k], clusters[k:2*k]

		clear(clusterCosts)
		for i, j := range ref.Assignment {
			clusterCosts[j] += ref.Costs[i]
		}

		for j, size := range ref.ClusterSizes {
			s := float64(size)
			perCluster[j] = 2*a*clusterCosts[j]/(avg*s) + 4*float64(n)/s
		}

		lead := a / avg
		return func(i int) float64 {
			return lead*ref.Costs[i] + perCluster[ref.Assignment[i]]
		}, nil

	default:
		return nil, fmt.Errorf("coreset: unknown sensitivity rule %v", sc.Rule)
	}
}
