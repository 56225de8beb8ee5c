package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presence_online_users",
		Help: "Users currently holding a registered gateway connection.",
	})

	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_notifications_total",
		Help: "Notifications pushed to user outboxes, by result (queued|offline).",
	}, []string{"result"})

	GatewayDisconnects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_gateway_disconnects_total",
		Help: "Gateway connections terminated, by disconnect reason.",
	}, []string{"reason"})

	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_upstream_requests_total",
		Help: "Calls to the external stats API, by result (ok|error).",
	}, []string{"result"})

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stats_rate_limited_total",
		Help: "Cache misses refused because the shared upstream quota was exhausted.",
	})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stats_cache_hits_total",
		Help: "Stats lookups served from cache.",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stats_cache_misses_total",
		Help: "Stats lookups that required the upstream path.",
	})
)

// Register adds every collector to the default registry. Call once from main.
func Register() {
	prometheus.MustRegister(
		OnlineUsers,
		Notifications,
		GatewayDisconnects,
		UpstreamRequests,
		RateLimited,
		CacheHits, CacheMisses,
	)
}
