package proxy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the proxy's Prometheus collectors.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	InFlight         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "policydesk",
				Subsystem: "proxy",
				Name:      "requests_total",
				Help:      "Total number of /api/agent requests",
			},
			[]string{"agent_id", "outcome"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "policydesk",
				Subsystem: "proxy",
				Name:      "upstream_duration_seconds",
				Help:      "Agent call duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"agent_id"},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "policydesk",
				Subsystem: "proxy",
				Name:      "in_flight_requests",
				Help:      "Agent calls currently waiting on the upstream",
			},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.UpstreamDuration, m.InFlight)
	return m
}

// Outcome labels for RequestsTotal.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeInvalid = "invalid"
)

func (m *Metrics) observe(agentID, outcome string, start time.Time) {
	m.RequestsTotal.WithLabelValues(agentID, outcome).Inc()
	if outcome != outcomeInvalid {
		m.UpstreamDuration.WithLabelValues(agentID).Observe(time.Since(start).Seconds())
	}
}
