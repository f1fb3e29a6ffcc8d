// Package metrics exposes the dashboard's prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	predictions      *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	sessions         prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crop_predictions_total",
			Help: "Prediction submissions by outcome.",
		}, []string{"outcome"}),
		upstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crop_upstream_requests_total",
			Help: "Requests to the prediction and history services.",
		}, []string{"endpoint", "outcome"}),
		upstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crop_upstream_request_duration_seconds",
			Help:    "Latency of requests to the prediction and history services.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "crop_sessions_active",
			Help: "Dashboard sessions held in memory.",
		}),
	}
}

// PredictionOutcome counts one submission.
func (m *Metrics) PredictionOutcome(outcome string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records one outbound request.
func (m *Metrics) ObserveUpstream(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// SetSessions publishes the number of live sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
