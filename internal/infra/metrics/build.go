package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo, startTime) }

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sales_bot_build_info",
			Help: "Constant 1 labeled with version, commit and Go runtime.",
		},
		[]string{"version", "commit", "goversion"},
	)

	startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sales_bot_start_time_seconds",
			Help: "Unix time the process started.",
		},
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
	startTime.SetToCurrentTime()
}
