package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SocialMutations counts toggles and writes by kind and outcome.
	SocialMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_social_mutations_total",
		Help: "Social graph and content mutations by kind and outcome",
	}, []string{"kind", "outcome"})

	// NotificationsEmitted counts notifications written, by type.
	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_notifications_emitted_total",
		Help: "Notifications written alongside their triggering mutation",
	}, []string{"type"})

	// NotificationsSuppressed counts notifications skipped because actor and recipient match.
	NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_notifications_suppressed_total",
		Help: "Notifications not written because the actor is the recipient",
	}, []string{"type"})

	// RealtimePublishFailures counts post-commit pushes that could not be delivered.
	RealtimePublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "murmur_realtime_publish_failures_total",
		Help: "Realtime notification pushes that failed after commit",
	})

	// InvalidationEvents counts view invalidation events by outcome (enqueued, dropped, applied, failed).
	InvalidationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_invalidation_events_total",
		Help: "View invalidation events by outcome",
	}, []string{"outcome"})

	// InvalidationQueueDepth is the number of events waiting for the consumer.
	InvalidationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_invalidation_queue_depth",
		Help: "View invalidation events waiting to be applied",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
