package kmeans

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/prone/distance"
	"github.com/hupe1980/prone/internal/arena"
	"github.com/hupe1980/prone/internal/dataset"
	"github.com/hupe1980/prone/internal/parallel"
	"github.com/hupe1980/prone/internal/resource"
	"github.com/hupe1980/prone/testutil"
)

func mustDataset(t *testing.T, rows [][]float64) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromRows(rows)
	require.NoError(t, err)
	return ds
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

type recordingObserver struct {
	rounds  []float64
	reseeds []int
}

func (o *recordingObserver) RecordRound(_ int, cost float64) { o.rounds = append(o.rounds, cost) }
func (o *recordingObserver) RecordReseed(cluster int)        { o.reseeds = append(o.reseeds, cluster) }

func TestRun_FourPoints(t *testing.T) {
	ds := mustDataset(t, [][]float64{{0, 0}, {0, 1}, {10, 0}, {10, 1}})

	res, err := Run(t.Context(), ds, Config{K: 2, Restarts: 5}, arena.New(nil), newRand(42))
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDelta(t, 1.0, res.TotalCost, 1e-9)
	assert.Equal(t, res.Assignment[0], res.Assignment[1])
	assert.Equal(t, res.Assignment[2], res.Assignment[3])
	assert.NotEqual(t, res.Assignment[0], res.Assignment[2])
	assert.Equal(t, []int{2, 2}, res.ClusterSizes)

	left := res.Centers[res.Assignment[0]*2 : res.Assignment[0]*2+2]
	right := res.Centers[res.Assignment[2]*2 : res.Assignment[2]*2+2]
	assert.InDeltaSlice(t, []float64{0, 0.5}, left, 1e-9)
	assert.InDeltaSlice(t, []float64{10, 0.5}, right, 1e-9)
}

func TestRun_InvalidK(t *testing.T) {
	ds := mustDataset(t, [][]float64{{0}, {1}})

	for _, k := range []int{0, -1, 3} {
		_, err := Run(t.Context(), ds, Config{K: k}, arena.New(nil), newRand(1))
		assert.ErrorIs(t, err, ErrInvalidK, "k=%d", k)
	}
}

func TestRun_KEqualsN(t *testing.T) {
	rows := testutil.NewRNG(7).UniformPoints(50, 3)
	ds := mustDataset(t, rows)

	res, err := Run(t.Context(), ds, Config{K: 50}, arena.New(nil), newRand(3))
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Equal(t, 0.0, res.TotalCost)
	for _, size := range res.ClusterSizes {
		assert.Equal(t, 1, size)
	}
}

func TestRun_KEqualsOne(t *testing.T) {
	rows := testutil.NewRNG(7).UniformPoints(200, 4)
	ds := mustDataset(t, rows)

	res, err := Run(t.Context(), ds, Config{K: 1}, arena.New(nil), newRand(3))
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDeltaSlice(t, testutil.Mean(rows), res.Centers, 1e-9)
	for _, a := range res.Assignment {
		assert.Equal(t, 0, a)
	}
	assert.InDelta(t, distance.Cost(ds.Data(), res.Centers, 4), res.TotalCost, 1e-9)
}

func TestRun_CostMonotone(t *testing.T) {
	rows, _ := testutil.NewRNG(11).Blobs(2000, 5, 12, 1.5)
	ds := mustDataset(t, rows)
	obs := &recordingObserver{}

	res, err := Run(t.Context(), ds, Config{K: 12, Observer: obs, Tolerance: 1e-9}, arena.New(nil), newRand(5))
	require.NoError(t, err)

	require.Len(t, res.History, res.Iterations+1)
	assert.Equal(t, res.History[1:], obs.rounds)

	if res.Reseeds == 0 {
		for i := 1; i < len(res.History); i++ {
			assert.LessOrEqual(t, res.History[i], res.History[i-1]*(1+1e-12), "round %d", i)
		}
	}
	assert.Equal(t, res.History[len(res.History)-1], res.TotalCost)
}

func TestRun_ConsistentResult(t *testing.T) {
	rows, _ := testutil.NewRNG(13).Blobs(1500, 3, 6, 2)
	ds := mustDataset(t, rows)

	res, err := Run(t.Context(), ds, Config{K: 6, MaxIterations: 3}, arena.New(nil), newRand(9))
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Iterations, 3)

	var total float64
	for i := range ds.Len() {
		j, d := distance.Nearest(ds.Row(i), res.Centers, 3)
		assert.Equal(t, j, res.Assignment[i])
		assert.InDelta(t, d, res.Costs[i], 1e-9)
		assert.GreaterOrEqual(t, res.Assignment[i], 0)
		assert.Less(t, res.Assignment[i], 6)
		total += d
	}
	assert.InDelta(t, total, res.TotalCost, 1e-6)
}

func TestRun_Deterministic(t *testing.T) {
	rows, _ := testutil.NewRNG(17).Blobs(3000, 4, 8, 1)
	ds := mustDataset(t, rows)

	run := func(workers int) *Result {
		cfg := Config{
			K:        8,
			Restarts: 2,
			Parallel: parallel.Config{Workers: workers, ChunkSize: 256},
		}
		res, err := Run(t.Context(), ds, cfg, arena.New(nil), newRand(99))
		require.NoError(t, err)
		return res
	}

	a, b, c := run(1), run(1), run(6)
	assert.Equal(t, a.Centers, b.Centers)
	assert.Equal(t, a.Assignment, b.Assignment)
	assert.Equal(t, a.Centers, c.Centers)
	assert.Equal(t, a.Assignment, c.Assignment)
	assert.Equal(t, a.History, c.History)
}

func TestRun_Restarts(t *testing.T) {
	rows, _ := testutil.NewRNG(19).Blobs(600, 2, 10, 0.5)
	ds := mustDataset(t, rows)

	single, err := Run(t.Context(), ds, Config{K: 10}, arena.New(nil), newRand(1))
	require.NoError(t, err)
	multi, err := Run(t.Context(), ds, Config{K: 10, Restarts: 4}, arena.New(nil), newRand(1))
	require.NoError(t, err)

	// Trial 0 is shared, so more restarts can only help.
	assert.LessOrEqual(t, multi.TotalCost, single.TotalCost)
}

func TestRun_IdenticalPoints(t *testing.T) {
	rows := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	ds := mustDataset(t, rows)

	res, err := Run(t.Context(), ds, Config{K: 3}, arena.New(nil), newRand(1))
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.TotalCost)
	assert.False(t, res.Converged)
	assert.Equal(t, []int{4, 0, 0}, res.ClusterSizes)
}

func TestRun_MemoryLimit(t *testing.T) {
	rows := testutil.NewRNG(1).UniformPoints(1000, 8)
	ds := mustDataset(t, rows)
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})

	_, err := Run(t.Context(), ds, Config{K: 4}, arena.New(rc), newRand(1))
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	rows := testutil.NewRNG(1).UniformPoints(1000, 2)
	ds := mustDataset(t, rows)

	_, err := Run(ctx, ds, Config{K: 10}, arena.New(nil), newRand(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssign(t *testing.T) {
	ds := mustDataset(t, [][]float64{{0, 0}, {1, 1}, {9, 9}, {5, 5}})
	centers := []float64{0, 0, 10, 10}
	assignment := make([]int, 4)
	costs := make([]float64, 4)

	total, err := Assign(t.Context(), ds, centers, assignment, costs, parallel.Config{ChunkSize: 1, Workers: 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 1, 0}, assignment)
	assert.Equal(t, []float64{0, 2, 2, 50}, costs)
	assert.Equal(t, 54.0, total)
}

func TestSeed(t *testing.T) {
	rows := [][]float64{{0}, {1}, {2}, {3}, {4}}
	ds := mustDataset(t, rows)
	minDist := make([]float64, 5)
	changed := make([]bool, 5)

	// k = n picks every distinct point exactly once.
	centers := make([]float64, 5)
	err := Seed(t.Context(), ds, 5, centers, minDist, changed, parallel.Config{}, newRand(8))
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{0, 1, 2, 3, 4}, centers)
	assert.Equal(t, make([]float64, 5), minDist)

	// k = 1 picks one data point.
	centers = make([]float64, 1)
	err = Seed(t.Context(), ds, 1, centers, minDist, changed, parallel.Config{}, newRand(8))
	require.NoError(t, err)
	assert.Contains(t, []float64{0, 1, 2, 3, 4}, centers[0])
}

func TestSeed_PrefersFarPoints(t *testing.T) {
	// One far outlier and a tight group: the outlier carries almost all D² mass
	// whenever the first center lands in the group.
	rows := [][]float64{{0}, {0.001}, {0.002}, {0.003}, {1000}}
	ds := mustDataset(t, rows)
	minDist := make([]float64, 5)
	changed := make([]bool, 5)

	hits := 0
	for seed := range uint64(50) {
		centers := make([]float64, 2)
		err := Seed(t.Context(), ds, 2, centers, minDist, changed, parallel.Config{}, newRand(seed))
		require.NoError(t, err)
		if centers[0] == 1000 || centers[1] == 1000 {
			hits++
		}
	}
	assert.Equal(t, 50, hits)
}

func TestReseedEmpty(t *testing.T) {
	ds := mustDataset(t, [][]float64{{0}, {1}, {2}, {10}})
	cfg := Config{K: 3}
	cfg.defaults()

	r, err := newRefiner(ds, cfg, arena.New(nil))
	require.NoError(t, err)
	b, err := r.newBuffers()
	require.NoError(t, err)

	// Cluster 0 holds {0,1,2}, cluster 1 holds {10}, cluster 2 is empty.
	copy(b.centers, []float64{1, 10, 50})
	copy(b.assign, []int{0, 0, 0, 1})
	copy(b.costs, []float64{1, 0, 1, 0})
	copy(b.sizes, []int{3, 1, 0})

	obs := &recordingObserver{}
	r.cfg.Observer = obs

	n := r.reseedEmpty(t.Context(), newRand(4), b)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{2}, obs.reseeds)
	// Only points 0 and 2 have positive cost.
	assert.Contains(t, []float64{0, 2}, b.centers[2])
}

func TestReseedEmpty_NoCandidate(t *testing.T) {
	ds := mustDataset(t, [][]float64{{0}, {10}})
	cfg := Config{K: 3}
	cfg.defaults()

	r, err := newRefiner(ds, cfg, arena.New(nil))
	require.NoError(t, err)
	b, err := r.newBuffers()
	require.NoError(t, err)

	// Both points are singletons of their clusters: stealing either one
	// would empty another cluster.
	copy(b.centers, []float64{1, 9, 50})
	copy(b.assign, []int{0, 1})
	copy(b.costs, []float64{1, 1})
	copy(b.sizes, []int{1, 1, 0})

	n := r.reseedEmpty(t.Context(), newRand(4), b)
	assert.Equal(t, 0, n)
	assert.Equal(t, 50.0, b.centers[2])
}

func TestRefill(t *testing.T) {
	ds := mustDataset(t, [][]float64{{0}, {1}, {2}, {10}})
	cfg := Config{K: 3}
	cfg.defaults()

	r, err := newRefiner(ds, cfg, arena.New(nil))
	require.NoError(t, err)
	b, err := r.newBuffers()
	require.NoError(t, err)

	// The center at 50 attracts no point in the final assignment.
	copy(b.centers, []float64{1, 10, 50})
	total, err := Assign(t.Context(), ds, b.centers, b.assign, b.costs, cfg.Parallel, nil)
	require.NoError(t, err)
	require.Equal(t, 2.0, total)
	r.countSizes(b)
	require.Equal(t, []int{3, 1, 0}, b.sizes)

	reseeded, total, err := r.refill(t.Context(), newRand(4), b)
	require.NoError(t, err)
	assert.Equal(t, 1, reseeded)
	assert.Equal(t, 1.0, total)
	assert.Zero(t, countEmpty(b.sizes))
	assert.Equal(t, 4, b.sizes[0]+b.sizes[1]+b.sizes[2])
}

func TestRefill_NothingToDraw(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1}, {1}, {1}})
	cfg := Config{K: 2}
	cfg.defaults()

	r, err := newRefiner(ds, cfg, arena.New(nil))
	require.NoError(t, err)
	b, err := r.newBuffers()
	require.NoError(t, err)

	copy(b.centers, []float64{1, 7})
	_, err = Assign(t.Context(), ds, b.centers, b.assign, b.costs, cfg.Parallel, nil)
	require.NoError(t, err)
	r.countSizes(b)

	reseeded, total, err := r.refill(t.Context(), newRand(4), b)
	require.NoError(t, err)
	assert.Zero(t, reseeded)
	assert.Zero(t, total)
	assert.Equal(t, []int{3, 0}, b.sizes)
	assert.Equal(t, 7.0, b.centers[1])
}

func TestRun_NoEmptyClusterAtIterationCap(t *testing.T) {
	// Few rounds and many clusters: whatever the last round empties is
	// refilled before the run returns.
	for seed := range uint64(30) {
		rows := testutil.NewRNG(seed).UniformPoints(60, 2)
		ds := mustDataset(t, rows)

		res, err := Run(t.Context(), ds, Config{K: 30, MaxIterations: 2}, arena.New(nil), newRand(seed))
		require.NoError(t, err)
		require.Len(t, res.History, res.Iterations+1)
		assert.Zero(t, countEmpty(res.ClusterSizes), "seed %d", seed)
		assert.Equal(t, res.History[len(res.History)-1], res.TotalCost)
	}
}

func TestRun_BuffersFromArena(t *testing.T) {
	const n, dim, k = 100, 2, 3
	ds := mustDataset(t, testutil.NewRNG(3).UniformPoints(n, dim))
	pc := parallel.Config{ChunkSize: 10}

	shared := 8 * (n + (k + 1) + k + k + pc.NumChunks(n)) // order, offsets, cursor, donors, partials
	trial := 8 * (k*dim + n + n + k)                      // centers, assign, costs, sizes

	t.Run("d2", func(t *testing.T) {
		rc := resource.NewController(resource.Config{})
		_, err := Run(t.Context(), ds, Config{K: k, Parallel: pc}, arena.New(rc), newRand(1))
		require.NoError(t, err)
		// minDist and changed.
		assert.Equal(t, int64(shared+trial+8*n+n), rc.MemoryUsage())
	})

	t.Run("projected", func(t *testing.T) {
		rc := resource.NewController(resource.Config{})
		_, err := Run(t.Context(), ds, Config{K: k, Parallel: pc, Seeding: SeedingProjected}, arena.New(rc), newRand(1))
		require.NoError(t, err)
		// dir, proj, perm, sorted, owner and a 128-leaf tree.
		assert.Equal(t, int64(shared+trial+8*(dim+4*n+255)), rc.MemoryUsage())
	})
}
