package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(commandTotal) }

var commandTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bot_command_total",
		Help: "Chat command attempts.",
	},
	[]string{"command", "status"}, // status: ok|error|unauthorized|rate_limited|unknown
)

func IncCommand(command, status string) {
	commandTotal.WithLabelValues(norm(command), norm(status)).Inc()
}
