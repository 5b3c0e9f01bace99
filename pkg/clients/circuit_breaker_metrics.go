package clients

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BreakerMetrics exports circuit breaker state for every named breaker.
type BreakerMetrics struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

// NewBreakerMetrics registers breaker gauges on reg. A nil reg leaves the
// collectors unregistered.
func NewBreakerMetrics(reg prometheus.Registerer) *BreakerMetrics {
	m := &BreakerMetrics{
		// Values: 0=closed, 1=half-open, 2=open
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circuit_breaker_state_transitions_total",
				Help: "Total number of circuit breaker state transitions",
			},
			[]string{"name", "from", "to"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.state, m.transitions)
	}
	return m
}

// Callback returns a function suitable for CircuitBreakerConfig.OnStateChange.
func (m *BreakerMetrics) Callback() func(string, CircuitBreakerState, CircuitBreakerState) {
	return func(name string, from, to CircuitBreakerState) {
		if m == nil {
			return
		}
		m.transitions.WithLabelValues(name, from.String(), to.String()).Inc()
		m.state.WithLabelValues(name).Set(float64(to))
	}
}
