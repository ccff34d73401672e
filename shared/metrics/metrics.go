package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusline_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"service", "method", "route", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campusline_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "route"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusline_notifications_total",
			Help: "Notification jobs by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	BrokerReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campusline_broker_reconnects_total",
			Help: "Broker reconnect attempts",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusline_events_published_total",
			Help: "Domain events published to streams",
		},
		[]string{"type", "status"},
	)
)

// Notification outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

func RecordHttpRequest(service, method, route, status string, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(service, method, route, status).Inc()
	HttpRequestDuration.WithLabelValues(service, method, route).Observe(duration.Seconds())
}

func RecordNotification(channel, outcome string) {
	NotificationsTotal.WithLabelValues(channel, outcome).Inc()
}

func RecordBrokerReconnect() {
	BrokerReconnects.Inc()
}

func RecordEventPublished(eventType string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	EventsPublished.WithLabelValues(eventType, status).Inc()
}
