// Package metrics holds the Prometheus collectors of the booking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "booking",
		Name:      "transitions_total",
		Help:      "Committed booking transitions broken down by audit action.",
	}, []string{"action"})

	conflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "booking",
		Name:      "conflicts_total",
		Help:      "Approve/modify attempts refused because of a resource conflict.",
	})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "booking",
		Name:      "notifications_total",
		Help:      "Notification attempts broken down by kind and result.",
	}, []string{"kind", "result"})
)

// RecordTransition counts one committed transition.
func RecordTransition(action string) {
	transitions.WithLabelValues(action).Inc()
}

// RecordConflict counts one refused assignment.
func RecordConflict() {
	conflicts.Inc()
}

// RecordNotification counts one notification attempt.
func RecordNotification(kind string, ok bool) {
	result := "failed"
	if ok {
		result = "sent"
	}
	notifications.WithLabelValues(kind, result).Inc()
}
