package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postavka",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postavka",
			Name:      "assignment_transitions_total",
			Help:      "Assignment state transitions by resulting status.",
		},
		[]string{"status"},
	)

	settlements = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "postavka",
			Name:      "settlements_total",
			Help:      "Booking items marked settled.",
		},
	)

	outboxRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postavka",
			Name:      "outbox_retries_total",
			Help:      "Outbox task retries by task type.",
		},
		[]string{"task_type"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, transitions, settlements, outboxRetries)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncTransition counts a state machine transition into status.
func IncTransition(status string) {
	transitions.WithLabelValues(status).Inc()
}

// IncSettled counts a settled booking item.
func IncSettled() {
	settlements.Inc()
}

// IncOutboxRetry counts a retried outbox task.
func IncOutboxRetry(taskType string) {
	outboxRetries.WithLabelValues(taskType).Inc()
}
