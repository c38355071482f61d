package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SwipesTotal counts recorded swipes by action.
	SwipesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mix_swipes_total",
		Help: "Total number of swipes recorded by action",
	}, []string{"action"})

	// MatchesCreatedTotal counts matches created from mutual likes.
	MatchesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mix_matches_created_total",
		Help: "Total number of matches created",
	})

	// MessagesTotal counts persisted chat messages by kind.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mix_messages_total",
		Help: "Total number of chat messages persisted by kind",
	}, []string{"kind"})

	// QuotaRejectionsTotal counts like attempts rejected by the daily quota.
	QuotaRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mix_quota_rejections_total",
		Help: "Total number of likes rejected by the daily quota",
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mix_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mix_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mix_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mix_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mix_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
