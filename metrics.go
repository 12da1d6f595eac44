package prone

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics.
// Implement this interface to integrate with monitoring systems; see
// metric.PrometheusCollector for a Prometheus implementation.
//
// RecordRound and RecordReseed are called from the goroutine running the
// operation, so implementations shared between concurrent calls must be
// safe for concurrent use.
type MetricsCollector interface {
	// RecordCluster is called after each Cluster call.
	// iterations is 0 if the run failed before refinement.
	RecordCluster(n, k, iterations int, duration time.Duration, err error)

	// RecordRound is called after every Lloyd round with the total cost.
	RecordRound(iteration int, cost float64)

	// RecordReseed is called when an empty cluster receives a new center.
	RecordReseed(cluster int)

	// RecordCoreset is called after each BuildCoreset call.
	RecordCoreset(n, m int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCluster(int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRound(int, float64)                          {}
func (NoopMetricsCollector) RecordReseed(int)                                  {}
func (NoopMetricsCollector) RecordCoreset(int, int, time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ClusterCount      atomic.Int64
	ClusterErrors     atomic.Int64
	ClusterTotalNanos atomic.Int64
	Iterations        atomic.Int64
	Rounds            atomic.Int64
	Reseeds           atomic.Int64
	CoresetCount      atomic.Int64
	CoresetErrors     atomic.Int64
	CoresetTotalNanos atomic.Int64
	CoresetPoints     atomic.Int64
}

// RecordCluster implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCluster(_, _, iterations int, duration time.Duration, err error) {
	b.ClusterCount.Add(1)
	b.ClusterTotalNanos.Add(duration.Nanoseconds())
	b.Iterations.Add(int64(iterations))
	if err != nil {
		b.ClusterErrors.Add(1)
	}
}

// RecordRound implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRound(int, float64) {
	b.Rounds.Add(1)
}

// RecordReseed implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReseed(int) {
	b.Reseeds.Add(1)
}

// RecordCoreset implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCoreset(_, m int, duration time.Duration, err error) {
	b.CoresetCount.Add(1)
	b.CoresetTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CoresetErrors.Add(1)
		return
	}
	b.CoresetPoints.Add(int64(m))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ClusterCount:    b.ClusterCount.Load(),
		ClusterErrors:   b.ClusterErrors.Load(),
		ClusterAvgNanos: avg(b.ClusterTotalNanos.Load(), b.ClusterCount.Load()),
		Iterations:      b.Iterations.Load(),
		Rounds:          b.Rounds.Load(),
		Reseeds:         b.Reseeds.Load(),
		CoresetCount:    b.CoresetCount.Load(),
		CoresetErrors:   b.CoresetErrors.Load(),
		CoresetAvgNanos: avg(b.CoresetTotalNanos.Load(), b.CoresetCount.Load()),
		CoresetPoints:   b.CoresetPoints.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ClusterCount    int64
	ClusterErrors   int64
	ClusterAvgNanos int64
	Iterations      int64
	Rounds          int64
	Reseeds         int64
	CoresetCount    int64
	CoresetErrors   int64
	CoresetAvgNanos int64
	CoresetPoints   int64
}

// observer adapts a MetricsCollector to the refinement loop.
type observer struct {
	m MetricsCollector
}

func (o observer) RecordRound(iteration int, cost float64) { o.m.RecordRound(iteration, cost) }
func (o observer) RecordReseed(cluster int)                { o.m.RecordReseed(cluster) }
