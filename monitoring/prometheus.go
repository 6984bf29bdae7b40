// Package monitoring provides a Prometheus-backed MetricsReporter.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusReporter implements sqlload.MetricsReporter on a private
// registry, so embedding applications keep control of their default registry.
type PrometheusReporter struct {
	executeDuration *prometheus.HistogramVec
	executeTotal    *prometheus.CounterVec
	batchSize       *prometheus.HistogramVec
	errorTotal      *prometheus.CounterVec
	inflight        prometheus.Gauge

	registry *prometheus.Registry
}

// NewPrometheusReporter creates a reporter with its own registry.
func NewPrometheusReporter() *PrometheusReporter {
	registry := prometheus.NewRegistry()

	r := &PrometheusReporter{
		executeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlload_execute_duration_seconds",
				Help:    "Duration of transaction and bulk-load executions in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
			},
			[]string{"table", "status"},
		),
		executeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlload_execute_total",
				Help: "Total number of executions",
			},
			[]string{"table", "status"},
		),
		batchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlload_batch_size",
				Help:    "Statements or rows per execution",
				Buckets: prometheus.ExponentialBuckets(1, 2, 15), // 1 to ~16k
			},
			[]string{"table"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlload_errors_total",
				Help: "Classified errors, labeled retry:<reason> or final:<reason>",
			},
			[]string{"table", "kind"},
		),
		inflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sqlload_inflight",
				Help: "Executions currently running",
			},
		),
		registry: registry,
	}

	registry.MustRegister(r.executeDuration, r.executeTotal, r.batchSize, r.errorTotal, r.inflight)
	return r
}

// ObserveExecuteDuration records one finished execution.
func (r *PrometheusReporter) ObserveExecuteDuration(table string, n int, d time.Duration, status string) {
	r.executeDuration.WithLabelValues(table, status).Observe(d.Seconds())
	r.executeTotal.WithLabelValues(table, status).Inc()
	r.batchSize.WithLabelValues(table).Observe(float64(n))
}

// IncError counts one classified error.
func (r *PrometheusReporter) IncError(table, kind string) {
	r.errorTotal.WithLabelValues(table, kind).Inc()
}

// IncInflight increments the inflight gauge.
func (r *PrometheusReporter) IncInflight() { r.inflight.Inc() }

// DecInflight decrements the inflight gauge.
func (r *PrometheusReporter) DecInflight() { r.inflight.Dec() }

// Handler returns an http.Handler exposing the reporter's registry.
func (r *PrometheusReporter) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
