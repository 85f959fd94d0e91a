package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbConns, dbMaxConns) }

var (
	dbConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Postgres pool connections by state.",
		},
		[]string{"state"}, // total|idle|acquired
	)
	dbMaxConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "db_pool_max_connections",
		Help: "Configured Postgres pool size.",
	})
)

// SetDBPoolStats is fed from pgxpool.Stat by the pool reporter.
func SetDBPoolStats(total, idle, acquired, max int32) {
	dbConns.WithLabelValues("total").Set(float64(total))
	dbConns.WithLabelValues("idle").Set(float64(idle))
	dbConns.WithLabelValues("acquired").Set(float64(acquired))
	dbMaxConns.Set(float64(max))
}
