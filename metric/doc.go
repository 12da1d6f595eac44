// Package metric exports clustering metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	collector := metric.NewPrometheusCollector(reg, "myapp")
//	res, err := prone.Cluster(ctx, points, k, prone.WithMetricsCollector(collector))
package metric
