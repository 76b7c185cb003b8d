package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vitalsync"

// Metrics holds the Prometheus counters and histograms for the API and engine.
type Metrics struct {
	ReportsComputed prometheus.Counter
	ReportCache     *prometheus.CounterVec // labels: result={hit,miss}
	Diagnostics     *prometheus.CounterVec // labels: kind

	HTTPRequests        *prometheus.CounterVec   // labels: method, route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: method, route

	RecordsLocated prometheus.Histogram
	USDAImports    *prometheus.CounterVec // labels: outcome={success,error,low_confidence}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsComputed,
		m.ReportCache,
		m.Diagnostics,
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.RecordsLocated,
		m.USDAImports,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nutrition_reports_computed_total",
			Help:      "Nutrition reports computed from food entries.",
		}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nutrition_report_cache_total",
			Help:      "Nutrition report cache lookups by result.",
		}, []string{"result"}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Non-fatal data diagnostics raised by the nutrition engine.",
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		RecordsLocated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "records_located",
			Help:      "Number of timeseries records found per window lookup.",
			Buckets:   []float64{0, 1, 5, 10, 30, 60, 120, 360},
		}),
		USDAImports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usda_imports_total",
			Help:      "USDA food imports by outcome.",
		}, []string{"outcome"}),
	}
}
