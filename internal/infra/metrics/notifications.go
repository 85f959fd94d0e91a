package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsTotal) }

// channel: discord|telegram; audience: buyer|operator|direct; status: sent|error
var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Outbound messages by channel, audience and delivery status.",
	},
	[]string{"channel", "audience", "status"},
)

func IncNotification(channel, audience string, err error) {
	status := "sent"
	if err != nil {
		status = "error"
	}
	notificationsTotal.WithLabelValues(norm(channel), norm(audience), status).Inc()
}
