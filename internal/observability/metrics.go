package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for upstream fetches, queries, the
// activity cache and the poller.
type Metrics struct {
	// Upstream fetch metrics.
	FetchAttempts       *prometheus.CounterVec   // labels: source={nve,regobs}, outcome={success,http_error,timeout,format_error,transport_error}
	FetchDuration       *prometheus.HistogramVec // labels: source
	CandidatesExhausted *prometheus.CounterVec   // labels: resource

	// Query and cache metrics.
	QueryOutcomes *prometheus.CounterVec // labels: query, status={ok,nodata,error}
	CacheLookups  *prometheus.CounterVec // labels: kind={latest,events,range}, result={hit,miss}

	// Poller metrics.
	PollerRunning      prometheus.Gauge
	PollCycleDuration  prometheus.Histogram
	StaleDiscarded     prometheus.Counter
	SnapshotsPublished prometheus.Counter
	PublishErrors      prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.FetchAttempts,
		m.FetchDuration,
		m.CandidatesExhausted,
		m.QueryOutcomes,
		m.CacheLookups,
		m.PollerRunning,
		m.PollCycleDuration,
		m.StaleDiscarded,
		m.SnapshotsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard",
			Name:      "fetch_attempts_total",
			Help:      "Upstream HTTP requests by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hazard",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream HTTP request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		CandidatesExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard",
			Name:      "candidates_exhausted_total",
			Help:      "Resolutions where every candidate endpoint failed.",
		}, []string{"resource"}),
		QueryOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard",
			Name:      "query_outcomes_total",
			Help:      "Query results by query type and status.",
		}, []string{"query", "status"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard",
			Name:      "activity_cache_lookups_total",
			Help:      "Activity cache lookups by tag kind and result.",
		}, []string{"kind", "result"}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard",
			Name:      "poller_running",
			Help:      "1 when the poller is active, 0 when shut down.",
		}),
		PollCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazard",
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of a complete poll cycle across all watched regions.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		StaleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard",
			Name:      "stale_results_discarded_total",
			Help:      "Poll results dropped because a newer request for the same view superseded them.",
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard",
			Name:      "snapshots_published_total",
			Help:      "Region snapshots written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard",
			Name:      "publish_errors_total",
			Help:      "Failed snapshot publish attempts.",
		}),
	}
}
