package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Global collectors, registered by promauto on the default registry.

var (
	// HttpRequestsTotal counts requests, labeled by method, path, and status code.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbg_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HttpRequestDuration measures server response time.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pbg_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "path"},
	)

	// TraversalSteps counts evaluated traversal steps by kind (out, in, has, ...).
	TraversalSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbg_traversal_steps_total",
			Help: "Total number of traversal steps evaluated",
		},
		[]string{"step"},
	)

	// TraversalLimitCutoffs counts Limit steps that stopped upstream iteration early.
	TraversalLimitCutoffs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pbg_traversal_limit_cutoffs_total",
			Help: "Number of traversals terminated early by a Limit step",
		},
	)

	// SessionLinesEmitted counts report lines written to session sinks.
	SessionLinesEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pbg_session_lines_emitted_total",
			Help: "Total number of lines emitted by query sessions",
		},
	)

	// AnalysisRuns counts analysis runs by analysis name and outcome.
	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbg_analysis_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"analysis", "status"},
	)

	// AnalysisDuration measures analysis wall time.
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pbg_analysis_duration_seconds",
			Help:    "Duration of analysis runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"analysis"},
	)

	// GraphSize tracks the loaded graph by element kind (vertices, edges, properties).
	GraphSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pbg_graph_elements",
			Help: "Number of elements in the loaded graph",
		},
		[]string{"kind"},
	)
)

// ObserveGraph publishes store sizes to GraphSize.
func ObserveGraph(vertices, edges, properties int) {
	GraphSize.WithLabelValues("vertices").Set(float64(vertices))
	GraphSize.WithLabelValues("edges").Set(float64(edges))
	GraphSize.WithLabelValues("properties").Set(float64(properties))
}
