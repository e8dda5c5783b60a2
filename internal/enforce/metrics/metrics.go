package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	OutcomesTotal       *prometheus.CounterVec
	InvocationFailures  prometheus.Counter
	DuplicateDeliveries prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		OutcomesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orgguard_enforce_outcomes_total",
			Help: "Total number of per-policy attachment outcomes by status",
		}, []string{"status"}),
		InvocationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orgguard_enforce_invocation_failures_total",
			Help: "Total number of invocations aborted before policy evaluation",
		}),
		DuplicateDeliveries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orgguard_enforce_duplicate_deliveries_total",
			Help: "Total number of membership events observed more than once",
		}),
	}
}

func (m *Metrics) IncrementOutcome(status string) {
	m.OutcomesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementInvocationFailures() {
	m.InvocationFailures.Inc()
}

func (m *Metrics) IncrementDuplicateDeliveries() {
	m.DuplicateDeliveries.Inc()
}
