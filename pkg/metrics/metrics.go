package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ActiveConnections open websocket sessions on this instance
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_active_connections",
		Help: "Number of open websocket sessions",
	})

	// OnlineUsers distinct identities with at least one bound session
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_online_users",
		Help: "Number of users with at least one bound session",
	})

	// MessagesTotal chat_message requests by outcome (delivered, rejected_invalid, persist_failed)
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Chat messages processed, by outcome",
	}, []string{"outcome"})

	// DroppedEvents outbound events dropped because a session buffer was full or closed
	DroppedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_dropped_events_total",
		Help: "Outbound events dropped for slow or closed sessions",
	})

	// NotificationsTotal notifier publish attempts by result
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_notifications_total",
		Help: "External notification publishes, by result",
	}, []string{"result"})

	// StoreLatency message store call latency by operation
	StoreLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_store_latency_seconds",
		Help:    "Message store call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	once sync.Once
)

// Init registers the collectors on the default registry, safe to call more than once
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			ActiveConnections,
			OnlineUsers,
			MessagesTotal,
			DroppedEvents,
			NotificationsTotal,
			StoreLatency,
		)
	})
}
