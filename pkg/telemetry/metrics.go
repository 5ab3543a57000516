// Package telemetry exposes the recommender's own operational metrics via
// Prometheus client_golang, complementing the executor client's otelhttp
// tracing with a counters/histograms surface for operators.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors the recommender registers.
type Metrics struct {
	TrialsStarted   *prometheus.CounterVec
	TrialsCompleted *prometheus.CounterVec
	ExecutorLatency *prometheus.HistogramVec
	CircuitState    *prometheus.GaugeVec
	ActiveSessions  prometheus.Gauge
}

// New registers the recommender's metrics against the given registry and
// returns the handle used to record them. Passing nil uses the default
// global registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		TrialsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recommender_trials_started_total",
			Help: "Number of trials started, labeled by session id.",
		}, []string{"session_id"}),
		TrialsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recommender_trials_completed_total",
			Help: "Number of trials completed, labeled by session id and outcome.",
		}, []string{"session_id", "outcome"}),
		ExecutorLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recommender_executor_call_duration_seconds",
			Help:    "Latency of executor apply_policy calls, labeled by outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		CircuitState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "recommender_circuit_breaker_state",
			Help: "Circuit breaker state: 0=closed, 1=open, 2=half_open.",
		}, []string{"session_id"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "recommender_active_sessions",
			Help: "Number of sessions currently RUNNING.",
		}),
	}
}

// Handler returns the HTTP handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
