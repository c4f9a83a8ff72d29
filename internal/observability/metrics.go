package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coffee_trends"

// Metrics holds the Prometheus counters, histograms, and gauges for the trend service.
type Metrics struct {
	// PSD API metrics.
	PSDRequests    *prometheus.CounterVec // labels: outcome={success,error,status,decode}
	PSDCache       *prometheus.CounterVec // labels: result={hit,miss,shared}
	PSDAPIDuration prometheus.Histogram

	// Analysis metrics.
	Analyses         *prometheus.CounterVec // labels: kind={trend,snapshot}, outcome={ok,insufficient_data,empty_result,invalid,cancelled}
	AnalysisDuration prometheus.Histogram
	YearsFetched     prometheus.Histogram

	// Publisher metrics.
	AnalysesPublished prometheus.Counter
	PublishErrors     prometheus.Counter
	PublisherEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PSDRequests,
		m.PSDCache,
		m.PSDAPIDuration,
		m.Analyses,
		m.AnalysisDuration,
		m.YearsFetched,
		m.AnalysesPublished,
		m.PublishErrors,
		m.PublisherEnabled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PSDRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "psd_requests_total",
			Help:      "PSD API requests by outcome.",
		}, []string{"outcome"}),
		PSDCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "psd_cache_total",
			Help:      "PSD fetch cache lookups by result.",
		}, []string{"result"}),
		PSDAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "psd_api_duration_seconds",
			Help:      "PSD API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses computed by kind and outcome.",
		}, []string{"kind", "outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete fetch-aggregate-fit cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		YearsFetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_years_fetched",
			Help:      "Number of market years fetched per trend analysis.",
			Buckets:   []float64{1, 2, 5, 10, 15, 20, 30, 50, 70},
		}),
		AnalysesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_published_total",
			Help:      "Trend analyses written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failures writing trend analyses to the sink topic.",
		}),
		PublisherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publisher_enabled",
			Help:      "1 when analysis publishing is enabled, 0 otherwise.",
		}),
	}
}
