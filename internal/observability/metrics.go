package observability

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smukkama/city-analytics/internal/analytics"
)

const namespace = "city_analytics"

// Metrics holds the Prometheus collectors for the analytics service.
type Metrics struct {
	Requests        *prometheus.CounterVec   // labels: metric, outcome={success,error,cache_hit}
	RequestDuration *prometheus.HistogramVec // labels: metric
	QueryDuration   *prometheus.HistogramVec // labels: query
	QueryErrors     *prometheus.CounterVec   // labels: query
	Cache           *prometheus.CounterVec   // labels: result={hit,miss,error}
	AlertsEmitted   *prometheus.CounterVec   // labels: type, severity
	AlertsPublished *prometheus.CounterVec   // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Analytics requests by metric and outcome.",
		}, []string{"metric", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end analytics request duration.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"metric"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Storage query duration by query name.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"query"}),
		QueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Failed storage queries by query name.",
		}, []string{"query"}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_emitted_total",
			Help:      "Alerts derived from computed summaries.",
		}, []string{"type", "severity"}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Alert publications to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests,
		m.RequestDuration,
		m.QueryDuration,
		m.QueryErrors,
		m.Cache,
		m.AlertsEmitted,
		m.AlertsPublished,
	}
}

// ObserveQuery records one storage query. It matches analytics.QueryObserver.
func (m *Metrics) ObserveQuery(query string, elapsed time.Duration, err error) {
	m.QueryDuration.WithLabelValues(query).Observe(elapsed.Seconds())
	if err != nil && !errors.Is(err, context.Canceled) {
		m.QueryErrors.WithLabelValues(query).Inc()
	}
}

// ObserveRequest records a finished analytics request
func (m *Metrics) ObserveRequest(metric string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Requests.WithLabelValues(metric, outcome).Inc()
	m.RequestDuration.WithLabelValues(metric).Observe(elapsed.Seconds())
}

// ObserveCacheHit records a request served from the response cache
func (m *Metrics) ObserveCacheHit(metric string, elapsed time.Duration) {
	m.Requests.WithLabelValues(metric, "cache_hit").Inc()
	m.RequestDuration.WithLabelValues(metric).Observe(elapsed.Seconds())
}

// ObserveAlerts counts alerts derived for a response
func (m *Metrics) ObserveAlerts(alerts []analytics.Alert) {
	for _, a := range alerts {
		m.AlertsEmitted.WithLabelValues(a.Type, a.Severity).Inc()
	}
}
