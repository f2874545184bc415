package guard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records guard activity. The zero value records nothing.
type Metrics struct {
	evaluations     *prometheus.CounterVec
	verifierResults *prometheus.CounterVec
	verifyDuration  prometheus.Histogram
}

// NewMetrics registers the guard collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "guard",
			Name:      "evaluations_total",
			Help:      "Guard evaluations by terminal state and decision path.",
		}, []string{"state", "path"}),
		verifierResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "guard",
			Name:      "verifier_results_total",
			Help:      "Session authority round trips by outcome and deny reason.",
		}, []string{"outcome", "reason"}),
		verifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "guard",
			Name:      "verify_duration_seconds",
			Help:      "Latency of session authority round trips.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.evaluations, m.verifierResults, m.verifyDuration)
	return m
}

func (m *Metrics) observeDecision(d Decision) {
	if m == nil || m.evaluations == nil {
		return
	}
	m.evaluations.WithLabelValues(d.State.String(), string(d.Path)).Inc()
}

func (m *Metrics) observeVerify(outcome, reason string, elapsed time.Duration) {
	if m == nil || m.verifierResults == nil {
		return
	}
	m.verifierResults.WithLabelValues(outcome, reason).Inc()
	m.verifyDuration.Observe(elapsed.Seconds())
}
