// Package metrics provides Prometheus instrumentation for the
// settlement service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettlementsTotal counts settlements computed, by algorithm and
	// validation outcome.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potsplit_settlements_total",
		Help: "Total settlements computed",
	}, []string{"algorithm", "valid"})

	// OptimizeDuration tracks end-to-end optimization latency.
	OptimizeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "potsplit_optimize_duration_seconds",
		Help:    "Settlement optimization latency in seconds",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
	}, []string{"algorithm"})

	// ValidationFindings counts validator errors and warnings.
	ValidationFindings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potsplit_validation_findings_total",
		Help: "Validation findings by kind",
	}, []string{"kind"})

	// HTTPRequestsTotal counts API requests by method, path pattern,
	// and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potsplit_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})
)

// ObserveSettlement records one completed optimization run.
func ObserveSettlement(algorithm string, elapsed time.Duration, valid bool) {
	outcome := "true"
	if !valid {
		outcome = "false"
	}
	SettlementsTotal.WithLabelValues(algorithm, outcome).Inc()
	OptimizeDuration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
}
