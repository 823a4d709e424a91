package store

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"campus-connect-go/internal/metrics"
)

// Change-event kinds published on a user's channel. Subscribers get the kind
// tag only, never the changed row; any event means the list should be
// refetched.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// EventBus fans out notification change events scoped to one user (Redis pub/sub)
type EventBus interface {
	Publish(ctx context.Context, userID int, kind string)
	Subscribe(ctx context.Context, userID int) *redis.PubSub
}

type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(opts *redis.Options) *RedisBus {
	return &RedisBus{client: redis.NewClient(opts)}
}

func userChannel(userID int) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// Publish is best-effort; a missed event only delays the next refresh.
func (b *RedisBus) Publish(ctx context.Context, userID int, kind string) {
	if err := b.client.Publish(ctx, userChannel(userID), kind).Err(); err != nil {
		log.Printf("Failed to publish %s event for user %d: %v", kind, userID, err)
		return
	}
	metrics.EventsPublished.Inc()
}

func (b *RedisBus) Subscribe(ctx context.Context, userID int) *redis.PubSub {
	return b.client.Subscribe(ctx, userChannel(userID))
}

// ChangeFeed adapts a user's pub/sub subscription into a plain signal channel,
// so consumers stay decoupled from the store technology. Bursts of events
// coalesce into one pending signal. The returned stop func releases the
// subscription; the channel closes after stop or context cancellation.
func ChangeFeed(ctx context.Context, bus EventBus, userID int) (<-chan struct{}, func()) {
	pubsub := bus.Subscribe(ctx, userID)
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { _ = pubsub.Close() }
}
