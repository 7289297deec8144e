package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// disaggregation pipeline and the dashboard service.
type Metrics struct {
	PipelineRuns     prometheus.Counter
	PipelineFailures *prometheus.CounterVec // labels: stage={load,merge,score,allocate,export}
	StatesAllocated  prometheus.Counter
	RunDuration      prometheus.Histogram
	StageDuration    *prometheus.HistogramVec // labels: stage

	// Dashboard metrics.
	DashboardRequests *prometheus.CounterVec // labels: outcome={success,bad_request,error}
	ViewDuration      prometheus.Histogram
	ViewCache         *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PipelineRuns,
		m.PipelineFailures,
		m.StatesAllocated,
		m.RunDuration,
		m.StageDuration,
		m.DashboardRequests,
		m.ViewDuration,
		m.ViewCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "malaria_disagg",
			Name:      "pipeline_runs_total",
			Help:      "Total completed disaggregation runs.",
		}),
		PipelineFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "malaria_disagg",
			Name:      "pipeline_failures_total",
			Help:      "Pipeline failures by stage.",
		}, []string{"stage"}),
		StatesAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "malaria_disagg",
			Name:      "states_allocated_total",
			Help:      "Total state records written across all runs.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "malaria_disagg",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete disaggregation run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "malaria_disagg",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),
		DashboardRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "malaria_dashboard",
			Name:      "requests_total",
			Help:      "Dashboard API requests by outcome.",
		}, []string{"outcome"}),
		ViewDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "malaria_dashboard",
			Name:      "view_duration_seconds",
			Help:      "Time to assemble a dashboard view from the store.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ViewCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "malaria_dashboard",
			Name:      "view_cache_total",
			Help:      "Dashboard view cache lookups by result.",
		}, []string{"result"}),
	}
}
