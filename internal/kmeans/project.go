package kmeans

import (
	"context"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hupe1980/prone/internal/arena"
	"github.com/hupe1980/prone/internal/dataset"
	"github.com/hupe1980/prone/internal/parallel"
)

// sumTree is a complete binary tree over n non-negative leaf weights in
// which every inner node holds the sum of its two children. Leaves past n
// stay zero.
type sumTree struct {
	nodes []float64
	n     int
	first int // position of leaf 0 in nodes
}

// treeSize returns the number of nodes of a sumTree with n leaves.
func treeSize(n int) int {
	leaves := 1
	for leaves < n {
		leaves <<= 1
	}
	return 2*leaves - 1
}

// newSumTree lays a tree over nodes, which must have length treeSize(n).
func newSumTree(nodes []float64, n int) *sumTree {
	return &sumTree{nodes: nodes, n: n, first: len(nodes) / 2}
}

// reset sets leaf i to the squared distance between values[i] and
// values[center].
func (t *sumTree) reset(values []float64, center int) {
	clear(t.nodes)
	leaves := t.nodes[t.first:]
	c := values[center]
	for i, v := range values[:t.n] {
		d := v - c
		leaves[i] = d * d
	}
	t.fix(0, t.n-1)
}

func (t *sumTree) size() int { return len(t.nodes) }

func (t *sumTree) sum() float64 { return t.nodes[0] }

// find returns the leaf whose prefix-sum interval contains x. It reports
// false when the tree has no mass or x lies outside [0, sum).
func (t *sumTree) find(x float64) (int, bool) {
	if !(t.nodes[0] > 0) || x < 0 || x >= t.nodes[0] {
		return 0, false
	}

	i := 0
	for i < t.first {
		l, r := 2*i+1, 2*i+2
		// Never descend into a massless subtree, even after rounding.
		if x < t.nodes[l] || t.nodes[r] == 0 {
			i = l
		} else {
			x -= t.nodes[l]
			i = r
		}
	}
	return i - t.first, true
}

// update turns leaf idx into a center over sorted values: its weight drops
// to zero and neighbours on both sides take their squared distance to
// values[idx] for as long as that is smaller than their current weight.
// It returns the inclusive leaf range [lo, hi] whose weight changed, idx
// included.
func (t *sumTree) update(idx int, values []float64) (lo, hi int) {
	leaves := t.nodes[t.first:]
	v := values[idx]
	leaves[idx] = 0

	lo = idx
	for lo > 0 {
		d := values[lo-1] - v
		if d*d >= leaves[lo-1] {
			break
		}
		lo--
		leaves[lo] = d * d
	}

	hi = idx
	for hi < t.n-1 {
		d := values[hi+1] - v
		if d*d >= leaves[hi+1] {
			break
		}
		hi++
		leaves[hi] = d * d
	}

	t.fix(lo, hi)
	return lo, hi
}

// fix recomputes every inner node above leaves [lo, hi].
func (t *sumTree) fix(lo, hi int) {
	lo, hi = lo+t.first, hi+t.first
	for lo > 0 {
		lo, hi = (lo-1)/2, (hi-1)/2
		for i := lo; i <= hi; i++ {
			t.nodes[i] = t.nodes[2*i+1] + t.nodes[2*i+2]
		}
	}
}

// projector seeds centers by k-means++ over a random 1-D projection.
//
// Points are projected onto a Gaussian direction and sorted. On a line the
// points whose distance shrinks when a new center is added form one
// contiguous run around it, so every pick only touches that run of leaves
// in the sum tree and the whole seeding costs O(nd + n log n) plus the
// length of the runs, independent of k*d.
type projector struct {
	dir    []float64 // dim
	proj   []float64 // projection of point i
	perm   []int     // point at sorted position a
	sorted []float64 // projections in ascending order
	owner  []int     // center owning sorted position a
	tree   *sumTree
}

func newProjector(a *arena.Arena, n, dim int) (*projector, error) {
	p := &projector{}

	var err error
	if p.dir, err = a.Float64s(dim); err != nil {
		return nil, err
	}
	if p.proj, err = a.Float64s(n); err != nil {
		return nil, err
	}
	if p.perm, err = a.Ints(n); err != nil {
		return nil, err
	}
	if p.sorted, err = a.Float64s(n); err != nil {
		return nil, err
	}
	if p.owner, err = a.Ints(n); err != nil {
		return nil, err
	}
	nodes, err := a.Float64s(treeSize(n))
	if err != nil {
		return nil, err
	}
	p.tree = newSumTree(nodes, n)
	return p, nil
}

// seed writes k centers (k*dim) chosen by 1-D k-means++ and the matching
// assignment: every point belongs to the last center whose pick reduced its
// projected distance, which is its nearest center on the line. When all
// remaining projected distances are zero the next center is uniform, so
// centers may repeat and a cluster may end up without points.
func (p *projector) seed(ctx context.Context, ds *dataset.Dataset, k int, centers []float64, assignment []int, pc parallel.Config, rng *rand.Rand) error {
	n, dim := ds.Len(), ds.Dim()

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	for j := range p.dir {
		p.dir[j] = normal.Rand()
	}

	err := pc.For(ctx, n, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			p.proj[i] = floats.Dot(ds.Row(i), p.dir)
			p.perm[i] = i
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Ties break on the point index so the order is reproducible.
	sort.Slice(p.perm, func(a, b int) bool {
		pa, pb := p.proj[p.perm[a]], p.proj[p.perm[b]]
		return pa < pb || (pa == pb && p.perm[a] < p.perm[b])
	})
	for a, i := range p.perm {
		p.sorted[a] = p.proj[i]
	}

	first := rng.IntN(n)
	copy(centers[:dim], ds.Row(p.perm[first]))
	clear(p.owner)
	p.tree.reset(p.sorted, first)

	for c := 1; c < k; c++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		idx, ok := p.tree.find(rng.Float64() * p.tree.sum())
		if !ok {
			idx = rng.IntN(n)
		}
		copy(centers[c*dim:(c+1)*dim], ds.Row(p.perm[idx]))

		lo, hi := p.tree.update(idx, p.sorted)
		for a := lo; a <= hi; a++ {
			p.owner[a] = c
		}
	}

	for a, i := range p.perm {
		assignment[i] = p.owner[a]
	}
	return nil
}
