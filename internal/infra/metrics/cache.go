package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(settingsCache) }

var settingsCache = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "settings_cache_requests_total",
		Help: "Redis lookups made by the settings cache, by outcome.",
	},
	[]string{"key", "result"}, // result: hit|miss|error
)

// IncCacheRequest counts one settings cache lookup. key is the setting name
// (keys.total_limit, keys.sold_count, ...), never a user supplied value.
func IncCacheRequest(key, result string) {
	settingsCache.WithLabelValues(norm(key), norm(result)).Inc()
}
