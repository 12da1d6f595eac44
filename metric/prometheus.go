package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector records clustering metrics as Prometheus series.
// It is safe for concurrent use.
type PrometheusCollector struct {
	opLatency  *prometheus.HistogramVec
	ops        *prometheus.CounterVec
	iterations prometheus.Histogram
	roundCost  prometheus.Gauge
	rounds     prometheus.Counter
	reseeds    prometheus.Counter
	points     *prometheus.CounterVec
}

// NewPrometheusCollector creates the collector and registers its series on
// reg with the given namespace. A nil reg uses prometheus.DefaultRegisterer.
// It panics if the series are already registered, like promauto.
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &PrometheusCollector{
		opLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of clustering operations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"op"}),
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Clustering operations by outcome",
		}, []string{"op", "status"}),
		iterations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lloyd_iterations",
			Help:      "Lloyd rounds per clustering run",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		roundCost: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "round_cost",
			Help:      "Total cost after the most recent Lloyd round",
		}),
		rounds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lloyd_rounds_total",
			Help:      "Lloyd rounds executed",
		}),
		reseeds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reseeds_total",
			Help:      "Empty clusters that received a new center",
		}),
		points: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_total",
			Help:      "Points processed by successful operations",
		}, []string{"op"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordCluster records a finished clustering run.
func (p *PrometheusCollector) RecordCluster(n, _, iterations int, duration time.Duration, err error) {
	p.opLatency.WithLabelValues("cluster").Observe(duration.Seconds())
	p.ops.WithLabelValues("cluster", status(err)).Inc()
	if err != nil {
		return
	}
	p.iterations.Observe(float64(iterations))
	p.points.WithLabelValues("cluster").Add(float64(n))
}

// RecordRound records one Lloyd round.
func (p *PrometheusCollector) RecordRound(_ int, cost float64) {
	p.rounds.Inc()
	p.roundCost.Set(cost)
}

// RecordReseed records a reseeded cluster.
func (p *PrometheusCollector) RecordReseed(int) {
	p.reseeds.Inc()
}

// RecordCoreset records a finished coreset construction.
func (p *PrometheusCollector) RecordCoreset(n, _ int, duration time.Duration, err error) {
	p.opLatency.WithLabelValues("coreset").Observe(duration.Seconds())
	p.ops.WithLabelValues("coreset", status(err)).Inc()
	if err == nil {
		p.points.WithLabelValues("coreset").Add(float64(n))
	}
}
