package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the auth flow and the service clients.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Auth operation outcomes by operation and result
	AuthOutcome *prometheus.CounterVec

	// Upstream request latencies by service and outcome
	ServiceLatency *prometheus.HistogramVec
}

// New registers the client metrics on reg. Use prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AuthOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboarrd_auth_operations_total",
			Help: "Auth operations by operation and outcome",
		}, []string{"operation", "outcome"}), // operation: "exchange", "refresh", "revoke", "status"

		ServiceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboarrd_service_request_duration_seconds",
			Help:    "Duration of requests to self-hosted services",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 12},
		}, []string{"service", "outcome"}),
	}
}

// IncrementAuth records an auth operation outcome.
func (m *Metrics) IncrementAuth(operation, outcome string) {
	if m != nil {
		m.AuthOutcome.WithLabelValues(operation, outcome).Inc()
	}
}

// ObserveService records the duration of a request to a service.
func (m *Metrics) ObserveService(service, outcome string, d time.Duration) {
	if m != nil {
		m.ServiceLatency.WithLabelValues(service, outcome).Observe(d.Seconds())
	}
}
