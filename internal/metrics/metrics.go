package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PushSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_messages_sent_total",
		Help: "Push messages accepted by the relay.",
	})
	PushFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_messages_failed_total",
		Help: "Push delivery attempts that failed (transient or unexpected status).",
	})
	SubscriptionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_subscriptions_pruned_total",
		Help: "Push subscriptions removed after the relay reported them gone.",
	})
	EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_events_published_total",
		Help: "Change events published to per-user notification channels.",
	})
)
