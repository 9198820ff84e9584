// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chain_brief"

// Metrics holds all Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	// Pipeline metrics
	BriefsTotal   *prometheus.CounterVec
	BriefDuration prometheus.Histogram
	RiskScores    prometheus.Histogram

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates the metric set on reg. A nil registerer creates
// unregistered collectors, which is what tests use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Provider lookups by source and resulting status",
		}, []string{"source", "status"}),
		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		}, []string{"source"}),

		BriefsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "briefs_total",
			Help:      "Completed briefs by runtime mode",
		}, []string{"mode"}),
		BriefDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "brief_duration_seconds",
			Help:      "End-to-end brief latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RiskScores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "risk_score",
			Help:      "Distribution of emitted risk scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) ObserveProvider(source, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(source, status).Inc()
	m.ProviderLatency.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) ObserveBrief(mode string, score int, d time.Duration) {
	if m == nil {
		return
	}
	m.BriefsTotal.WithLabelValues(mode).Inc()
	m.BriefDuration.Observe(d.Seconds())
	m.RiskScores.Observe(float64(score))
}

func (m *Metrics) ObserveHTTP(route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}
