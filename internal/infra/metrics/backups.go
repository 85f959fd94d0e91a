package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		backupRunsTotal,
		backupDuration,
		backupsRetained,
		backupLastSuccess,
	)
}

var (
	backupRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_runs_total",
			Help: "Backup and restore runs by operation and result.",
		},
		[]string{"op", "result"}, // op: backup|restore, result: ok|fail
	)

	backupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backup_duration_seconds",
			Help:    "Duration of dump/restore runs in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"op"},
	)

	backupsRetained = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backups_retained",
			Help: "Backup artifacts currently on disk.",
		},
	)

	backupLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_last_success_timestamp_seconds",
			Help: "Unix time of the last successful backup.",
		},
	)
)

func ObserveBackup(op string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "fail"
	}
	backupRunsTotal.WithLabelValues(norm(op), result).Inc()
	backupDuration.WithLabelValues(norm(op)).Observe(took.Seconds())
	if err == nil && norm(op) == "backup" {
		backupLastSuccess.SetToCurrentTime()
	}
}

func SetBackupsRetained(n int) {
	backupsRetained.Set(float64(n))
}
