package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once   sync.Once
	queued []prometheus.Collector

	// Registry holds the bot's collectors plus the Go runtime and process ones.
	Registry = prometheus.NewRegistry()
)

// register queues collectors from each file's init; MustRegister adds them.
func register(cs ...prometheus.Collector) {
	queued = append(queued, cs...)
}

func MustRegister() {
	once.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		Registry.MustRegister(queued...)
	})
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
