package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reading outcomes recorded in arcana_readings_total.
const (
	OutcomeCompleted   = "completed"
	OutcomeRejected    = "rejected"
	OutcomeUpstream    = "upstream_error"
	OutcomeInterrupted = "interrupted"
	OutcomeCanceled    = "canceled"
	OutcomeInternal    = "internal_error"
)

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	readings      *prometheus.CounterVec
	failures      *prometheus.CounterVec
	fragments     prometheus.Counter
	firstFragment prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arcana_readings_total",
			Help: "Readings handled, by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arcana_reading_failures_total",
			Help: "Failed readings, by the last phase reached.",
		}, []string{"phase"}),
		fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arcana_fragments_total",
			Help: "Text fragments forwarded to clients.",
		}),
		firstFragment: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arcana_upstream_first_fragment_seconds",
			Help:    "Time from upstream call to the first forwarded fragment.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	reg.MustRegister(m.readings, m.failures, m.fragments, m.firstFragment)
	return m
}

func (m *Metrics) outcome(outcome string, phase Phase) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCompleted {
		m.failures.WithLabelValues(string(phase)).Inc()
	}
}

func (m *Metrics) fragment() {
	if m == nil {
		return
	}
	m.fragments.Inc()
}

func (m *Metrics) firstFragmentAfter(seconds float64) {
	if m == nil {
		return
	}
	m.firstFragment.Observe(seconds)
}
