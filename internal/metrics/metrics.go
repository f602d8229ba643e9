package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venuebook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "venuebook",
			Name:      "reservations_created_total",
			Help:      "Reservations accepted into Pending.",
		},
	)

	confirmations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "venuebook",
			Name:      "confirmations_total",
			Help:      "Reservations that reached Confirmed.",
		},
	)

	conflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venuebook",
			Name:      "conflicts_total",
			Help:      "Requests rejected because of a confirmed overlap, by source.",
		},
		[]string{"source"},
	)

	cascadeDeclined = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "venuebook",
			Name:      "cascade_declined_total",
			Help:      "Pending reservations auto-declined by a confirmation.",
		},
	)

	auditFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "venuebook",
			Name:      "audit_failures_total",
			Help:      "Confirmation log appends that failed.",
		},
	)

	degradedChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "venuebook",
			Name:      "degraded_checks_total",
			Help:      "Conflict checks that ran without every source.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			reservationsCreated,
			confirmations,
			conflicts,
			cascadeDeclined,
			auditFailures,
			degradedChecks,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncCreated() { reservationsCreated.Inc() }

func IncConfirmed() { confirmations.Inc() }

func IncConflict(source string) { conflicts.WithLabelValues(source).Inc() }

func AddCascadeDeclined(n int) { cascadeDeclined.Add(float64(n)) }

func IncAuditFailure() { auditFailures.Inc() }

func IncDegradedCheck() { degradedChecks.Inc() }
