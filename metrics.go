package apicall

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes as reported in metrics.
const (
	OutcomeSuccess       = "success"
	OutcomeTransport     = "transport_error"
	OutcomeNotConfigured = "not_configured"
)

// Metrics collects per-call counters and latencies. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. reg may be
// nil, in which case the collectors are created but not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apicall",
			Name:      "calls_total",
			Help:      "Number of API calls by HTTP method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "apicall",
			Name:      "call_duration_seconds",
			Help:      "Duration of API calls that reached the transport.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration)
	}
	return m
}

func (m *Metrics) observe(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(method, outcome).Inc()
	if outcome != OutcomeNotConfigured {
		m.duration.WithLabelValues(method).Observe(d.Seconds())
	}
}
