package kmeans

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/hupe1980/prone/internal/arena"
	"github.com/hupe1980/prone/internal/dataset"
	"github.com/hupe1980/prone/internal/parallel"
)

// clusterChunkSize is the number of clusters recentered by one task.
const clusterChunkSize = 8

// buffers hold the state a trial hands back in its Result.
type buffers struct {
	centers []float64
	assign  []int
	costs   []float64
	sizes   []int
}

// refiner owns the scratch space shared by all trials of a run.
type refiner struct {
	ds  *dataset.Dataset
	cfg Config
	a   *arena.Arena

	order    []int // point indices grouped by cluster
	offsets  []int // cluster j owns order[offsets[j]:offsets[j+1]]
	cursor   []int
	donors   []int // cluster sizes left after reseed draws
	partials []float64

	// D² seeding scratch.
	minDist []float64
	changed []bool

	proj *projector

	reseedLog rate.Sometimes
}

func newRefiner(ds *dataset.Dataset, cfg Config, a *arena.Arena) (*refiner, error) {
	n := ds.Len()
	r := &refiner{
		ds:        ds,
		cfg:       cfg,
		a:         a,
		reseedLog: rate.Sometimes{First: 3, Interval: time.Second},
	}

	var err error
	if r.order, err = a.Ints(n); err != nil {
		return nil, err
	}
	if r.offsets, err = a.Ints(cfg.K + 1); err != nil {
		return nil, err
	}
	if r.cursor, err = a.Ints(cfg.K); err != nil {
		return nil, err
	}
	if r.donors, err = a.Ints(cfg.K); err != nil {
		return nil, err
	}
	if r.partials, err = a.Float64s(cfg.Parallel.NumChunks(n)); err != nil {
		return nil, err
	}

	if cfg.Seeding == SeedingProjected {
		if r.proj, err = newProjector(a, n, ds.Dim()); err != nil {
			return nil, err
		}
		return r, nil
	}

	if r.minDist, err = a.Float64s(n); err != nil {
		return nil, err
	}
	if r.changed, err = a.Bools(n); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *refiner) newBuffers() (*buffers, error) {
	n, k, dim := r.ds.Len(), r.cfg.K, r.ds.Dim()
	b := &buffers{}

	var err error
	if b.centers, err = r.a.Float64s(k * dim); err != nil {
		return nil, err
	}
	if b.assign, err = r.a.Ints(n); err != nil {
		return nil, err
	}
	if b.costs, err = r.a.Float64s(n); err != nil {
		return nil, err
	}
	if b.sizes, err = r.a.Ints(k); err != nil {
		return nil, err
	}
	return b, nil
}

// run performs one seed+refine trial into b.
func (r *refiner) run(ctx context.Context, rng *rand.Rand, b *buffers) (*Result, error) {
	cfg := r.cfg
	pc := cfg.Parallel

	if err := r.seed(ctx, rng, b); err != nil {
		return nil, err
	}

	total, err := Assign(ctx, r.ds, b.centers, b.assign, b.costs, pc, r.partials)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Centers:      b.centers,
		Assignment:   b.assign,
		Costs:        b.costs,
		ClusterSizes: b.sizes,
		History:      []float64{total},
	}

	prev := total
	for res.Iterations < cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reseeded, err := r.recenter(ctx, rng, b)
		if err != nil {
			return nil, err
		}
		res.Reseeds += reseeded

		total, err = Assign(ctx, r.ds, b.centers, b.assign, b.costs, pc, r.partials)
		if err != nil {
			return nil, err
		}

		res.Iterations++
		res.History = append(res.History, total)
		cfg.Observer.RecordRound(res.Iterations, total)

		// A reseed may raise the cost for one round; only judge
		// convergence on rounds that moved centers to means.
		if reseeded == 0 && (prev == 0 || prev-total < cfg.Tolerance*prev) {
			res.Converged = true
			break
		}
		prev = total
	}

	r.countSizes(b)

	// The last assignment may have emptied a cluster; refill it once more
	// and count that as an extra round.
	if countEmpty(b.sizes) > 0 {
		reseeded, refilled, err := r.refill(ctx, rng, b)
		if err != nil {
			return nil, err
		}
		if reseeded > 0 {
			total = refilled
			res.Reseeds += reseeded
			res.Iterations++
			res.Converged = false
			res.History = append(res.History, total)
			cfg.Observer.RecordRound(res.Iterations, total)
		}
	}

	res.TotalCost = total

	// Clusters still empty after the reseed budget keep their last center.
	if empty := countEmpty(b.sizes); empty > 0 {
		res.Converged = false
		cfg.Logger.WarnContext(ctx, "clusters empty after refinement", "empty", empty)
	}

	return res, nil
}

// seed fills b.centers for a new trial.
func (r *refiner) seed(ctx context.Context, rng *rand.Rand, b *buffers) error {
	if r.proj == nil {
		return Seed(ctx, r.ds, r.cfg.K, b.centers, r.minDist, r.changed, r.cfg.Parallel, rng)
	}

	if err := r.proj.seed(ctx, r.ds, r.cfg.K, b.centers, b.assign, r.cfg.Parallel, rng); err != nil {
		return err
	}
	// Start from the means of the projected partition. A cluster without
	// points keeps its seed point.
	return r.means(ctx, b)
}

// refill reseeds the clusters left empty by the current assignment, whose
// sizes must be counted, and reassigns every point. It returns the number
// of reseeded clusters and the new total cost; with nothing reseeded the
// buffers are left untouched and the cost is zero.
func (r *refiner) refill(ctx context.Context, rng *rand.Rand, b *buffers) (int, float64, error) {
	reseeded := r.reseedEmpty(ctx, rng, b)
	if reseeded == 0 {
		return 0, 0, nil
	}

	total, err := Assign(ctx, r.ds, b.centers, b.assign, b.costs, r.cfg.Parallel, r.partials)
	if err != nil {
		return 0, 0, err
	}
	r.countSizes(b)
	return reseeded, total, nil
}

func countEmpty(sizes []int) int {
	empty := 0
	for _, size := range sizes {
		if size == 0 {
			empty++
		}
	}
	return empty
}

func (r *refiner) countSizes(b *buffers) {
	clear(b.sizes)
	for _, j := range b.assign {
		b.sizes[j]++
	}
}

// recenter moves every non-empty center to the mean of its points and
// reseeds empty ones. It returns the number of reseeded centers.
func (r *refiner) recenter(ctx context.Context, rng *rand.Rand, b *buffers) (int, error) {
	if err := r.means(ctx, b); err != nil {
		return 0, err
	}
	return r.reseedEmpty(ctx, rng, b), nil
}

// means moves every non-empty center to the mean of its points and leaves
// b.sizes counted for the current assignment.
func (r *refiner) means(ctx context.Context, b *buffers) error {
	k, dim := r.cfg.K, r.ds.Dim()

	// Counting sort of point indices by cluster. Members of each cluster
	// end up in ascending index order, which fixes the summation order.
	r.countSizes(b)
	r.offsets[0] = 0
	for j := 0; j < k; j++ {
		r.offsets[j+1] = r.offsets[j] + b.sizes[j]
	}
	copy(r.cursor, r.offsets[:k])
	for i, j := range b.assign {
		r.order[r.cursor[j]] = i
		r.cursor[j]++
	}

	pc := parallel.Config{Workers: r.cfg.Parallel.Workers, ChunkSize: clusterChunkSize}
	err := pc.For(ctx, k, func(lo, hi int) error {
		for j := lo; j < hi; j++ {
			members := r.order[r.offsets[j]:r.offsets[j+1]]
			if len(members) == 0 {
				continue
			}
			center := b.centers[j*dim : (j+1)*dim]
			clear(center)
			for _, i := range members {
				floats.Add(center, r.ds.Row(i))
			}
			floats.Scale(1/float64(len(members)), center)
		}
		return nil
	})
	return err
}

// reseedEmpty replaces each empty center by a point drawn with probability
// proportional to its current cost, one D² step over the assignment that
// produced the empty cluster. A point is only taken if its cluster keeps at
// least one other member.
func (r *refiner) reseedEmpty(ctx context.Context, rng *rand.Rand, b *buffers) int {
	dim := r.ds.Dim()

	var (
		tree     sampleuv.Weighted
		started  bool
		reseeded int
	)
	remaining := r.donors

	for j, size := range b.sizes {
		if size > 0 {
			continue
		}

		if !started {
			tree = sampleuv.NewWeighted(b.costs, rng)
			copy(remaining, b.sizes)
			started = true
		}

		for attempt := 0; attempt < r.cfg.MaxReseedAttempts; attempt++ {
			idx, ok := tree.Take()
			if !ok {
				break
			}
			donor := b.assign[idx]
			if remaining[donor] <= 1 {
				continue
			}
			remaining[donor]--
			remaining[j]++

			copy(b.centers[j*dim:(j+1)*dim], r.ds.Row(idx))
			reseeded++
			r.cfg.Observer.RecordReseed(j)
			r.reseedLog.Do(func() {
				r.cfg.Logger.DebugContext(ctx, "reseeded empty cluster", "cluster", j, "point", idx)
			})
			break
		}
	}

	return reseeded
}
