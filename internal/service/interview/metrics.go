package interview

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	transitions      *prometheus.CounterVec
	capability       *prometheus.HistogramVec
	recorderFailures prometheus.Counter
	active           prometheus.Gauge
}

// newMetrics registers on reg. A nil reg yields working but unregistered collectors.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_transitions_total",
			Help: "Interview state machine transitions by outcome",
		}, []string{"outcome"}),
		capability: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interview_capability_duration_seconds",
			Help:    "Duration of external capability calls in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		}, []string{"capability", "status"}),
		recorderFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "interview_recorder_failures_total",
			Help: "Transcript appends that failed",
		}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Name: "interview_active_sessions",
			Help: "Sessions currently registered",
		}),
	}
}

func (m *metrics) observeCapability(capability, status string, elapsed time.Duration) {
	m.capability.WithLabelValues(capability, status).Observe(elapsed.Seconds())
}

func (m *metrics) transition(outcome string) {
	m.transitions.WithLabelValues(outcome).Inc()
}
