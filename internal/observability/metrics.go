// Package observability groups the Prometheus instruments used by the bot.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing, so tests can pass nil.
type Metrics struct {
	ActiveSessions     prometheus.Gauge
	EventsProcessed    *prometheus.CounterVec
	RemindersFired     prometheus.Counter
	DeliveryFailures   prometheus.Counter
	CompletionRequests *prometheus.CounterVec
	CompletionRetries  prometheus.Counter
}

// NewMetrics registers all instruments under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of users with an in-memory conversation session.",
		}),
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Inbound messaging events by kind.",
		}, []string{"kind"}),
		RemindersFired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Due reminders swept and removed by the scheduler.",
		}),
		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_delivery_failures_total",
			Help:      "Reminder deliveries that failed on the messaging channel.",
		}),
		CompletionRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Completion backend calls by outcome class.",
		}, []string{"outcome"}),
		CompletionRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_retries_total",
			Help:      "Completion attempts re-submitted after a retryable failure.",
		}),
	}
}

// ObserveEvent counts one inbound event of the given kind.
func (m *Metrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.EventsProcessed.WithLabelValues(kind).Inc()
}

// ObserveReminderFired counts one swept reminder, and one delivery failure
// when delivered is false.
func (m *Metrics) ObserveReminderFired(delivered bool) {
	if m == nil {
		return
	}
	m.RemindersFired.Inc()
	if !delivered {
		m.DeliveryFailures.Inc()
	}
}

// ObserveCompletion counts one completion call with its outcome class.
func (m *Metrics) ObserveCompletion(outcome string) {
	if m == nil {
		return
	}
	m.CompletionRequests.WithLabelValues(outcome).Inc()
}

// ObserveCompletionRetry counts one retried completion attempt.
func (m *Metrics) ObserveCompletionRetry() {
	if m == nil {
		return
	}
	m.CompletionRetries.Inc()
}

// SetActiveSessions records the current number of live sessions.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// MetricsHandler returns the HTTP handler serving the metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
