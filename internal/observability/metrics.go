package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis failures by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatapp_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// MessagesSent counts persisted messages by kind ("direct" or "group").
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatapp_messages_sent_total",
		Help: "Total number of messages sent",
	}, []string{"kind"})

	// MessageMutations counts edit, soft-delete, restore and destroy operations.
	MessageMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatapp_message_mutations_total",
		Help: "Total number of message mutations by kind and action",
	}, []string{"kind", "action"})

	// FriendRequests counts friend request lifecycle events.
	FriendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatapp_friend_requests_total",
		Help: "Friend request events by outcome",
	}, []string{"outcome"})

	// AuthEvents counts register, login and logout outcomes.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatapp_auth_events_total",
		Help: "Authentication events by action and outcome",
	}, []string{"action", "outcome"})

	// UploadBytes observes accepted upload sizes.
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatapp_upload_bytes",
		Help:    "Size of accepted image uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})

	// WebSocketConnections is the number of open websocket clients.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatapp_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketDrops counts frames dropped because a client's send buffer was full.
	WebSocketDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatapp_websocket_backpressure_drops_total",
		Help: "WebSocket messages dropped due to backpressure",
	})
)
