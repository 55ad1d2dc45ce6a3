package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for the analyze endpoint and the offline cache router.
// Each instance owns its registry so tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	AnalyzeRequests *prometheus.CounterVec
	AnalyzeDuration prometheus.Histogram
	CacheRequests   *prometheus.CounterVec
}

// New creates a Metrics instance registered on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AnalyzeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendy_analyze_requests_total",
				Help: "Total number of receipt analyze requests by outcome",
			},
			[]string{"outcome"},
		),
		AnalyzeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spendy_analyze_duration_seconds",
				Help:    "Duration of receipt analysis including the model call",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
			},
		),
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendy_cache_requests_total",
				Help: "Requests seen by the offline cache router by policy and outcome",
			},
			[]string{"policy", "outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
