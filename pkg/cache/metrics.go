package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors exposes the hit statistics of c to Prometheus.
func Collectors(c Cacher) []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "tablesync",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups of Tables API responses.",
		}, func() float64 {
			return float64(c.Stats().TotalRequests)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "tablesync",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache lookups answered from the cache.",
		}, func() float64 {
			return float64(c.Stats().TotalHits)
		}),
	}
}
