package optimize

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeFailure   = "failure"
	OutcomeTimeout   = "timeout"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// Metrics instruments an Orchestrator. A nil *Metrics records nothing.
type Metrics struct {
	placements       *prometheus.CounterVec
	routings         *prometheus.CounterVec
	placementSeconds prometheus.Histogram
	routingSeconds   prometheus.Histogram
	scheduleSteps    prometheus.Histogram
}

// NewMetrics creates and registers the orchestrator metrics.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: metrics namespace (defaults to "simmap" if empty)
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "simmap"
	}

	m := &Metrics{
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "placement",
			Name:      "calls_total",
			Help:      "Placement calls by outcome (ok, failure, malformed).",
		}, []string{"outcome"}),
		routings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "calls_total",
			Help:      "Routing calls by outcome (ok, timeout, malformed, error).",
		}, []string{"outcome"}),
		placementSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "placement",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of placement searches.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~4min
		}),
		routingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of routing searches, timeouts included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		scheduleSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "schedule_steps",
			Help:      "Length of successfully routed schedules.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	reg.MustRegister(m.placements, m.routings, m.placementSeconds, m.routingSeconds, m.scheduleSteps)
	return m
}

func (m *Metrics) observePlacement(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.placements.WithLabelValues(outcome).Inc()
	m.placementSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) observeRouting(outcome string, elapsed time.Duration, steps int) {
	if m == nil {
		return
	}
	m.routings.WithLabelValues(outcome).Inc()
	m.routingSeconds.Observe(elapsed.Seconds())
	if outcome == OutcomeOK {
		m.scheduleSteps.Observe(float64(steps))
	}
}
