package prone

import (
	"context"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/prone/internal/arena"
	"github.com/hupe1980/prone/internal/coreset"
	"github.com/hupe1980/prone/internal/dataset"
	"github.com/hupe1980/prone/internal/kmeans"
	"github.com/hupe1980/prone/internal/resource"
	"github.com/hupe1980/prone/model"
)

// Result is a k-means clustering.
type Result = model.Clustering

// Coreset is a weighted sample of point indices.
type Coreset = model.Coreset

// streamIncrement fixes the PCG stream of a seeded call.
const streamIncrement = 0x9e3779b97f4a7c15

// Cluster partitions points into k clusters with D² seeding followed by
// Lloyd refinement. WithSeeding switches to seeding on a random projection.
//
// All rows must have the same non-zero length and only finite values, and
// 1 <= k <= len(points); otherwise an error matching ErrInvalidInput is
// returned before any work is done. points is not modified or retained.
//
// A run that stops at the iteration cap is still returned with
// Result.Converged set to false; see WithStrictConvergence.
func Cluster(ctx context.Context, points [][]float64, k int, opts ...Option) (*Result, error) {
	ds, err := dataset.FromRows(points)
	if err != nil {
		return nil, translateError(err)
	}
	return cluster(ctx, ds, k, opts)
}

// ClusterMatrix is Cluster for a gonum matrix with one point per row.
func ClusterMatrix(ctx context.Context, points mat.Matrix, k int, opts ...Option) (*Result, error) {
	ds, err := dataset.FromMatrix(points)
	if err != nil {
		return nil, translateError(err)
	}
	return cluster(ctx, ds, k, opts)
}

// BuildCoreset compresses points into m weighted draws.
//
// It clusters the points into k clusters, scores every point by its
// sensitivity to that clustering and draws m indices independently with
// replacement, index i with probability p(i). The weight of a draw of i is
// exactly 1/(m*p(i)), so weighted sums over the coreset are unbiased
// estimates of sums over all points. m may exceed len(points).
//
// Preconditions are those of Cluster plus m >= 1. If the reference
// clustering has zero cost (fewer distinct points than k, or all points
// identical) an error matching ErrDegenerateInput is returned.
func BuildCoreset(ctx context.Context, points [][]float64, k, m int, opts ...Option) (*Coreset, error) {
	ds, err := dataset.FromRows(points)
	if err != nil {
		return nil, translateError(err)
	}
	return buildCoreset(ctx, ds, k, m, opts)
}

// BuildCoresetMatrix is BuildCoreset for a gonum matrix with one point per row.
func BuildCoresetMatrix(ctx context.Context, points mat.Matrix, k, m int, opts ...Option) (*Coreset, error) {
	ds, err := dataset.FromMatrix(points)
	if err != nil {
		return nil, translateError(err)
	}
	return buildCoreset(ctx, ds, k, m, opts)
}

// call holds the per-call state shared by both entry points.
type call struct {
	opts  options
	log   *Logger
	rng   *rand.Rand
	arena *arena.Arena
	ctrl  *resource.Controller
	cfg   kmeans.Config
}

func newCall(ds *dataset.Dataset, k int, opts []Option) (*call, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if k < 1 || k > ds.Len() {
		return nil, invalidf("k=%d must be in [1, %d]", k, ds.Len())
	}

	seed := o.seed
	if !o.seeded {
		seed = rand.Uint64()
	}

	ctrl := resource.NewController(resource.Config{MemoryLimitBytes: o.memoryLimit})
	log := o.logger.WithK(k).WithDimension(ds.Dim()).WithCount(ds.Len())

	return &call{
		opts:  o,
		log:   log,
		rng:   rand.New(rand.NewPCG(seed, streamIncrement)),
		arena: arena.New(ctrl),
		ctrl:  ctrl,
		cfg: kmeans.Config{
			K:                 k,
			MaxIterations:     o.maxIterations,
			Tolerance:         o.tolerance,
			MaxReseedAttempts: o.maxReseedAttempts,
			Seeding:           o.seeding.seeding(),
			Restarts:          o.restarts,
			Parallel:          o.parallel(),
			Logger:            log.Logger,
			Observer:          observer{m: o.metricsCollector},
		},
	}, nil
}

func (c *call) close(ctx context.Context) {
	c.arena.Free()
	c.log.DebugContext(ctx, "buffers released",
		"peak_bytes", c.ctrl.PeakMemoryUsage(),
		"allocs", c.arena.Stats().TotalAllocs,
	)
}

func (c *call) cluster(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	res, err := kmeans.Run(ctx, ds, c.cfg, c.arena, c.rng)
	if err != nil {
		return nil, translateError(err)
	}
	return toClustering(res, ds.Dim()), nil
}

func cluster(ctx context.Context, ds *dataset.Dataset, k int, opts []Option) (res *Result, err error) {
	start := time.Now()

	c, err := newCall(ds, k, opts)
	if err != nil {
		return nil, err
	}
	defer c.close(ctx)

	defer func() {
		iterations := 0
		if res != nil {
			iterations = res.Iterations
		}
		c.opts.metricsCollector.RecordCluster(ds.Len(), k, iterations, time.Since(start), err)
		c.log.LogCluster(ctx, res, err)
	}()

	res, err = c.cluster(ctx, ds)
	if err != nil {
		return nil, err
	}
	if c.opts.strict && !res.Converged {
		return res, ErrConvergenceNotReached
	}
	return res, nil
}

func buildCoreset(ctx context.Context, ds *dataset.Dataset, k, m int, opts []Option) (cs *Coreset, err error) {
	start := time.Now()

	if m < 1 {
		return nil, invalidf("m=%d must be >= 1", m)
	}

	c, err := newCall(ds, k, opts)
	if err != nil {
		return nil, err
	}
	defer c.close(ctx)

	defer func() {
		c.opts.metricsCollector.RecordCoreset(ds.Len(), m, time.Since(start), err)
		c.log.LogCoreset(ctx, m, cs, err)
	}()

	ref, err := c.cluster(ctx, ds)
	if err != nil {
		return nil, err
	}

	cs, err = c.sample(ctx, ref, ds.Len(), m)
	if err != nil {
		return nil, translateError(err)
	}
	return cs, nil
}

func (c *call) sample(ctx context.Context, ref *Result, n, m int) (*Coreset, error) {
	pc := c.opts.parallel()

	probs, err := c.arena.Float64s(n)
	if err != nil {
		return nil, err
	}
	cdf, err := c.arena.Float64s(n)
	if err != nil {
		return nil, err
	}
	var scratch coreset.Scratch
	if scratch.Partials, err = c.arena.Float64s(pc.NumChunks(n)); err != nil {
		return nil, err
	}
	if c.opts.rule == SensitivityClusterBound {
		if scratch.Clusters, err = c.arena.Float64s(2 * ref.K()); err != nil {
			return nil, err
		}
	}

	err = coreset.Sensitivities(ctx, coreset.Reference{
		Costs:        ref.Costs,
		Assignment:   ref.Assignment,
		ClusterSizes: ref.ClusterSizes,
		TotalCost:    ref.TotalCost,
	}, c.opts.scoring(), pc, probs, scratch)
	if err != nil {
		return nil, err
	}

	indices, err := c.arena.Ints(m)
	if err != nil {
		return nil, err
	}
	weights, err := c.arena.Float64s(m)
	if err != nil {
		return nil, err
	}
	drawn, err := c.arena.Float64s(m)
	if err != nil {
		return nil, err
	}

	if err := coreset.Sample(ctx, probs, pc, c.rng, cdf, indices, weights, drawn); err != nil {
		return nil, err
	}

	return &Coreset{
		Indices:       indices,
		Weights:       weights,
		Probabilities: drawn,
		Reference:     ref,
	}, nil
}

func toClustering(res *kmeans.Result, dim int) *Result {
	k := len(res.Centers) / dim
	centers := make([][]float64, k)
	for j := range centers {
		centers[j] = res.Centers[j*dim : (j+1)*dim : (j+1)*dim]
	}

	return &Result{
		Centers:      centers,
		Assignment:   res.Assignment,
		Costs:        res.Costs,
		ClusterSizes: res.ClusterSizes,
		TotalCost:    res.TotalCost,
		Iterations:   res.Iterations,
		Converged:    res.Converged,
		Reseeds:      res.Reseeds,
		History:      res.History,
	}
}
