package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhookRequests,
		webhookDuration,
	)
}

var (
	// gateway: payment|mercadopago|pagseguro|stripe
	// result: bounded, e.g. applied|already_confirmed|not_found|ignored|bad_payload|bad_signature|error
	webhookRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Gateway webhook calls by gateway and result.",
		},
		[]string{"gateway", "result"},
	)

	webhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_duration_seconds",
			Help:    "Duration of webhook handling in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"gateway"},
	)
)

func ObserveWebhook(gateway, result string, took time.Duration) {
	webhookRequests.WithLabelValues(norm(gateway), norm(result)).Inc()
	webhookDuration.WithLabelValues(norm(gateway)).Observe(took.Seconds())
}
