package kmeans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/hupe1980/prone/internal/arena"
	"github.com/hupe1980/prone/internal/dataset"
	"github.com/hupe1980/prone/internal/parallel"
)

const (
	// DefaultMaxIterations caps the number of Lloyd rounds.
	DefaultMaxIterations = 100
	// DefaultTolerance is the relative cost decrease below which a run has converged.
	DefaultTolerance = 1e-4
	// DefaultMaxReseedAttempts bounds the draws spent on one empty cluster per round.
	DefaultMaxReseedAttempts = 8
)

// ErrInvalidK is returned when k is outside [1, n].
var ErrInvalidK = errors.New("kmeans: k must be in [1, n]")

// Seeding selects how the initial centers of a trial are chosen.
type Seeding int

const (
	// SeedingD2 runs k-means++ in the full space: every further center is
	// drawn with probability proportional to its squared distance to the
	// nearest chosen center. Each pick costs O(nd).
	SeedingD2 Seeding = iota

	// SeedingProjected runs k-means++ on a random 1-D projection and starts
	// refinement from the partition it induces. It trades seeding quality
	// for time independent of k*d.
	SeedingProjected
)

func (s Seeding) String() string {
	switch s {
	case SeedingD2:
		return "d2"
	case SeedingProjected:
		return "projected"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Observer receives per-round progress. Implementations must be cheap.
type Observer interface {
	RecordRound(iteration int, cost float64)
	RecordReseed(cluster int)
}

type noopObserver struct{}

func (noopObserver) RecordRound(int, float64) {}
func (noopObserver) RecordReseed(int)         {}

// Config configures a clustering run.
type Config struct {
	K                 int
	MaxIterations     int
	Tolerance         float64
	MaxReseedAttempts int
	Seeding           Seeding

	// Restarts is the number of independent seed+refine trials; the
	// lowest-cost one wins. Values < 1 mean 1.
	Restarts int

	Parallel parallel.Config
	Logger   *slog.Logger
	Observer Observer
}

func (c *Config) defaults() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.MaxReseedAttempts <= 0 {
		c.MaxReseedAttempts = DefaultMaxReseedAttempts
	}
	if c.Restarts < 1 {
		c.Restarts = 1
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Observer == nil {
		c.Observer = noopObserver{}
	}
}

// Result is the outcome of a run. Centers, Assignment and Costs are
// mutually consistent: Assignment[i] is the nearest center of point i and
// Costs[i] the squared distance to it.
type Result struct {
	Centers      []float64 // k*dim, row-major
	Assignment   []int
	Costs        []float64
	ClusterSizes []int
	TotalCost    float64

	Iterations int
	Converged  bool
	Reseeds    int

	// History holds the total cost after the initial assignment followed by
	// the total cost after every round.
	History []float64
}

// Run seeds and refines k centers over ds. Buffers are allocated from a,
// randomness is drawn from rng only.
func Run(ctx context.Context, ds *dataset.Dataset, cfg Config, a *arena.Arena, rng *rand.Rand) (*Result, error) {
	cfg.defaults()

	n, dim := ds.Len(), ds.Dim()
	if cfg.K < 1 || cfg.K > n {
		return nil, fmt.Errorf("%w: k=%d, n=%d", ErrInvalidK, cfg.K, n)
	}
	if cfg.Seeding != SeedingD2 && cfg.Seeding != SeedingProjected {
		return nil, fmt.Errorf("kmeans: unknown seeding %v", cfg.Seeding)
	}

	r, err := newRefiner(ds, cfg, a)
	if err != nil {
		return nil, err
	}

	best, err := r.newBuffers()
	if err != nil {
		return nil, err
	}
	work := best
	if cfg.Restarts > 1 {
		if work, err = r.newBuffers(); err != nil {
			return nil, err
		}
	}

	// Every restart gets its own stream so adding restarts never changes
	// the outcome of the earlier ones.
	base := rng.Uint64()

	var bestRes *Result
	for trial := 0; trial < cfg.Restarts; trial++ {
		trng := rand.New(rand.NewPCG(base, uint64(trial)))

		res, err := r.run(ctx, trng, work)
		if err != nil {
			return nil, err
		}

		cfg.Logger.DebugContext(ctx, "k-means trial finished",
			"trial", trial,
			"cost", res.TotalCost,
			"iterations", res.Iterations,
			"converged", res.Converged,
		)

		if bestRes == nil || res.TotalCost < bestRes.TotalCost {
			bestRes = res
			best, work = work, best
		}
	}

	cfg.Logger.InfoContext(ctx, "k-means finished",
		"n", n,
		"dimension", dim,
		"k", cfg.K,
		"seeding", cfg.Seeding.String(),
		"cost", bestRes.TotalCost,
		"iterations", bestRes.Iterations,
		"converged", bestRes.Converged,
		"reseeds", bestRes.Reseeds,
	)

	return bestRes, nil
}
