package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(keysTotal) }

var keysTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "access_keys_total",
		Help: "Access key lifecycle events.",
	},
	[]string{"event"}, // issued|redeemed|expired
)

func AddKeys(event string, n int) {
	if n <= 0 {
		return
	}
	keysTotal.WithLabelValues(norm(event)).Add(float64(n))
}
