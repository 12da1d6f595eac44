package prone

import (
	"math"

	"github.com/hupe1980/prone/internal/coreset"
	"github.com/hupe1980/prone/internal/kmeans"
	"github.com/hupe1980/prone/internal/parallel"
)

// SensitivityRule selects how per-point sampling importance is scored.
type SensitivityRule int

const (
	// SensitivityBlend scores point i as
	// alpha*cost(i)/totalCost + beta/|C(i)|, where C(i) is its cluster.
	SensitivityBlend SensitivityRule = iota

	// SensitivityClusterBound scores point i as
	// A*cost(i)/avg + 2*A*cost(C)/(avg*|C|) + 4*n/|C| with
	// A = 16*(ln k + 2) and avg = totalCost/n. It gives more weight to
	// small and expensive clusters than SensitivityBlend.
	SensitivityClusterBound
)

func (r SensitivityRule) String() string {
	return r.rule().String()
}

func (r SensitivityRule) rule() coreset.Rule {
	switch r {
	case SensitivityBlend:
		return coreset.RuleBlend
	case SensitivityClusterBound:
		return coreset.RuleClusterBound
	default:
		return coreset.Rule(r)
	}
}

// Seeding selects how initial centers are chosen.
type Seeding int

const (
	// SeedD2 picks centers by D² sampling over the full points.
	SeedD2 Seeding = iota

	// SeedProjected picks centers by D² sampling over a random
	// one-dimensional projection of the points and starts refinement from
	// the partition that induces. Its cost does not grow with k times the
	// dimension, which pays off for large k; the starting point is coarser,
	// so refinement may need more rounds.
	SeedProjected
)

func (s Seeding) String() string {
	return s.seeding().String()
}

func (s Seeding) seeding() kmeans.Seeding {
	switch s {
	case SeedD2:
		return kmeans.SeedingD2
	case SeedProjected:
		return kmeans.SeedingProjected
	default:
		return kmeans.Seeding(s)
	}
}

type options struct {
	seed              uint64
	seeded            bool
	maxIterations     int
	tolerance         float64
	maxReseedAttempts int
	seeding           Seeding
	restarts          int
	workers           int
	chunkSize         int
	rule              SensitivityRule
	alpha             float64
	beta              float64
	strict            bool
	memoryLimit       int64
	logger            *Logger
	metricsCollector  MetricsCollector
}

// Option configures a Cluster or BuildCoreset call.
type Option func(*options)

func defaultOptions() options {
	return options{
		maxIterations:     kmeans.DefaultMaxIterations,
		tolerance:         kmeans.DefaultTolerance,
		maxReseedAttempts: kmeans.DefaultMaxReseedAttempts,
		seeding:           SeedD2,
		restarts:          1,
		chunkSize:         parallel.DefaultChunkSize,
		rule:              SensitivityBlend,
		alpha:             coreset.DefaultScoring.Alpha,
		beta:              coreset.DefaultScoring.Beta,
		logger:            NoopLogger(),
		metricsCollector:  NoopMetricsCollector{},
	}
}

func applyOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o, o.validate()
}

func (o *options) validate() error {
	switch {
	case o.maxIterations < 1:
		return invalidf("max iterations %d < 1", o.maxIterations)
	case !(o.tolerance > 0) || math.IsInf(o.tolerance, 0):
		return invalidf("tolerance %v must be positive and finite", o.tolerance)
	case o.maxReseedAttempts < 1:
		return invalidf("max reseed attempts %d < 1", o.maxReseedAttempts)
	case o.seeding != SeedD2 && o.seeding != SeedProjected:
		return invalidf("unknown seeding %d", int(o.seeding))
	case o.restarts < 1:
		return invalidf("restarts %d < 1", o.restarts)
	case o.workers < 0:
		return invalidf("workers %d < 0", o.workers)
	case o.chunkSize < 1:
		return invalidf("chunk size %d < 1", o.chunkSize)
	case o.rule != SensitivityBlend && o.rule != SensitivityClusterBound:
		return invalidf("unknown sensitivity rule %d", int(o.rule))
	case o.alpha < 0 || o.beta < 0 || math.IsInf(o.alpha, 0) || math.IsInf(o.beta, 0):
		return invalidf("sensitivity blend (%v, %v) must be finite and non-negative", o.alpha, o.beta)
	case o.alpha == 0 && o.beta == 0:
		return invalidf("sensitivity blend weights are both zero")
	case o.memoryLimit < 0:
		return invalidf("memory limit %d < 0", o.memoryLimit)
	}
	return nil
}

func (o *options) parallel() parallel.Config {
	return parallel.Config{Workers: o.workers, ChunkSize: o.chunkSize}
}

func (o *options) scoring() coreset.Scoring {
	return coreset.Scoring{Rule: o.rule.rule(), Alpha: o.alpha, Beta: o.beta}
}

// WithSeed makes the call reproducible: identical input, seed and options
// produce identical output regardless of the number of workers.
// Without a seed every call draws a fresh one from the runtime source.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithMaxIterations caps the number of Lloyd rounds (default 100). When
// the last round leaves a cluster empty, one more round refills it.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithTolerance sets the relative cost decrease below which refinement
// stops (default 1e-4).
func WithTolerance(tol float64) Option {
	return func(o *options) {
		o.tolerance = tol
	}
}

// WithMaxReseedAttempts bounds the draws spent on reseeding one empty
// cluster per round (default 8). A cluster still empty after the cap keeps
// its previous center and the run is reported as not converged.
func WithMaxReseedAttempts(n int) Option {
	return func(o *options) {
		o.maxReseedAttempts = n
	}
}

// WithSeeding selects the seeding strategy (default SeedD2).
func WithSeeding(s Seeding) Option {
	return func(o *options) {
		o.seeding = s
	}
}

// WithRestarts runs n independent seed and refine trials and keeps the one
// with the lowest cost (default 1).
func WithRestarts(n int) Option {
	return func(o *options) {
		o.restarts = n
	}
}

// WithWorkers sets the number of goroutines used for per-point work.
// 0 (the default) uses runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithChunkSize sets the number of points handed to a worker at once.
//
// Unlike the worker count, the chunk size is part of the random stream
// layout of the coreset sampler: changing it changes which indices a
// seeded BuildCoreset call draws.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithSensitivityRule selects the sensitivity scoring rule used by
// BuildCoreset (default SensitivityBlend).
func WithSensitivityRule(r SensitivityRule) Option {
	return func(o *options) {
		o.rule = r
	}
}

// WithSensitivityBlend sets the weights of the cost and cluster-size terms
// of SensitivityBlend (default 1 and 1). Both must be non-negative and not
// both zero.
func WithSensitivityBlend(alpha, beta float64) Option {
	return func(o *options) {
		o.alpha = alpha
		o.beta = beta
	}
}

// WithStrictConvergence makes Cluster return ErrConvergenceNotReached,
// together with the result, when refinement did not converge.
func WithStrictConvergence(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithMemoryLimit bounds the bytes of working buffers a call may reserve.
// 0 (the default) means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithLogger sets the logger. If nil is passed, NoopLogger is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = m
	}
}
