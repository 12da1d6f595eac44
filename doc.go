// Package prone provides scalable k-means clustering and k-means coresets.
//
// Two operations are offered:
//
//   - Cluster partitions n points into k clusters using D² (k-means++)
//     seeding followed by Lloyd refinement.
//   - BuildCoreset compresses n points into m weighted draws such that the
//     weighted cost of any center set on the draws estimates its cost on
//     the full dataset without bias. A slower, higher-quality solver can
//     then run on the coreset instead of all points.
//
// # Quick Start
//
//	ctx := context.Background()
//	res, _ := prone.Cluster(ctx, points, 8, prone.WithSeed(42))
//	fmt.Println(res.Centers, res.Assignment, res.TotalCost)
//
//	cs, _ := prone.BuildCoreset(ctx, points, 8, 1000, prone.WithSeed(42))
//	for d, i := range cs.Indices {
//	    use(points[i], cs.Weights[d])
//	}
//
// # Determinism
//
// Randomness is drawn from a PCG generator seeded by WithSeed. Work is split
// into fixed chunks whose boundaries do not depend on the number of workers,
// and every chunk that needs randomness derives its own stream, so a seeded
// call returns identical results for any WithWorkers value. Without a seed
// every call draws a fresh one.
//
// # Sensitivity
//
// The default rule scores point i as cost(i)/totalCost + 1/|C(i)|. The two
// terms can be reweighted with WithSensitivityBlend, or the bound of
// SensitivityClusterBound can be selected with WithSensitivityRule.
//
// # Errors
//
// Precondition violations match ErrInvalidInput and are reported before any
// work starts. *ErrDimensionMismatch and *ErrNonFinite carry the offending
// position. Coresets of inputs whose clustering has zero cost fail with
// ErrDegenerateInput.
//
// # Observability
//
// WithLogger attaches a structured slog logger and WithMetricsCollector a
// MetricsCollector; metric.PrometheusCollector exports to Prometheus.
// Encoding of results lives in package codec.
package prone
