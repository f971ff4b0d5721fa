package launch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Launch outcome labels.
const (
	OutcomeRedirect   = "redirect"
	OutcomeRejected   = "rejected"
	OutcomeDenied     = "denied"
	OutcomeBadRequest = "bad_request"
	OutcomeError      = "error"
)

// Metrics holds the launch flow counters.
type Metrics struct {
	Launches  *prometheus.CounterVec
	Consumers prometheus.Counter
}

// NewMetrics builds and registers the launch counters. reg may be nil for
// tests that do not scrape.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ltigate_launches_total",
			Help: "Launch requests by terminal outcome.",
		}, []string{"outcome"}),
		Consumers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ltigate_consumer_registrations_total",
			Help: "Consumers registered through the admin endpoint.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Launches, m.Consumers)
	}
	return m
}

func (m *Metrics) launch(outcome string) {
	if m == nil || m.Launches == nil {
		return
	}
	m.Launches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) consumerRegistered() {
	if m == nil || m.Consumers == nil {
		return
	}
	m.Consumers.Inc()
}
