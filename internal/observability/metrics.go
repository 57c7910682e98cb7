// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Fetch metrics
	FillsFetched     prometheus.Counter
	MarketsFetched   prometheus.Counter
	FetchErrors      *prometheus.CounterVec
	FetchCallLatency *prometheus.HistogramVec

	// Ingestion metrics
	FillsStored     prometheus.Counter
	FillsArchived   prometheus.Counter
	IngestionErrors *prometheus.CounterVec
	LiveTradesSeen  prometheus.Counter

	// Build metrics
	BuildsTotal     *prometheus.CounterVec
	BuildDuration   *prometheus.HistogramVec
	DatasetsWritten prometheus.Counter
	NodesPerBuild   prometheus.Histogram
	EdgesPerBuild   prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulFetch prometheus.Gauge
	LastSuccessfulBuild prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "polymarket_hypergraph_lab"
	}

	return &Metrics{
		// Fetch metrics
		FillsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "fills_fetched_total",
			Help:      "Total number of fills fetched from the Goldsky subgraph",
		}),
		MarketsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "markets_fetched_total",
			Help:      "Total number of markets fetched from the Gamma API",
		}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "errors_total",
			Help:      "Total number of fetch errors by source",
		}, []string{"source"}),
		FetchCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "call_latency_seconds",
			Help:      "External API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),

		// Ingestion metrics
		FillsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fills_stored_total",
			Help:      "Total number of fills stored to the database",
		}),
		FillsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fills_archived_total",
			Help:      "Total number of fills archived to ClickHouse",
		}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by stage",
		}, []string{"stage"}),
		LiveTradesSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "live_trades_seen_total",
			Help:      "Total number of live trades seen on the CLOB feed",
		}),

		// Build metrics
		BuildsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "runs_total",
			Help:      "Total number of dataset builds by mode and status",
		}, []string{"mode", "status"}),
		BuildDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "duration_seconds",
			Help:      "Dataset build duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"mode"}),
		DatasetsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "datasets_written_total",
			Help:      "Total number of dataset directories published",
		}),
		NodesPerBuild: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "nodes_per_build",
			Help:      "Unique trader count per dataset build",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 6),
		}),
		EdgesPerBuild: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "hyperedges_per_build",
			Help:      "Hyperedge count per dataset build",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 6),
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulFetch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_fetch_timestamp",
			Help:      "Unix timestamp of last successful fill fetch",
		}),
		LastSuccessfulBuild: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_build_timestamp",
			Help:      "Unix timestamp of last successful dataset build",
		}),
	}
}

// RecordFetchCall records the latency of one external API call.
func RecordFetchCall(source string, seconds float64) {
	DefaultMetrics.FetchCallLatency.WithLabelValues(source).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")
