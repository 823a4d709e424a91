package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/SherClockHolmes/webpush-go"

	"campus-connect-go/internal/metrics"
	"campus-connect-go/internal/models"
	"campus-connect-go/internal/store"
)

const defaultTTL = 60 // seconds the relay may hold an undelivered message

// ErrMissingUser is returned when a dispatch names no target user.
var ErrMissingUser = errors.New("user_id is required")

// SendFunc submits one encrypted push message to the relay named by the
// subscription's endpoint. It matches webpush.SendNotificationWithContext so
// tests can swap in a stub.
type SendFunc func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Dispatcher delivers one payload to every push endpoint a user registered.
// It keeps no state between invocations.
type Dispatcher struct {
	Subs       store.SubscriptionStore
	Send       SendFunc
	PublicKey  string
	PrivateKey string
	Subscriber string
	TTL        int
}

// NewFromEnv builds a Dispatcher with VAPID keys from the environment,
// generating and logging a fresh pair when none are configured.
func NewFromEnv(subs store.SubscriptionStore) *Dispatcher {
	privateKey := os.Getenv("VAPID_PRIVATE_KEY")
	publicKey := os.Getenv("VAPID_PUBLIC_KEY")

	if privateKey == "" || publicKey == "" {
		log.Println("VAPID keys not found in environment. Generating new keys...")
		priv, pub, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Fatal("Failed to generate VAPID keys:", err)
		}
		privateKey, publicKey = priv, pub
		log.Printf("Generated VAPID Keys:\nVAPID_PRIVATE_KEY=%s\nVAPID_PUBLIC_KEY=%s\n(Add these to your .env file to persist them)", priv, pub)
	}

	subscriber := os.Getenv("VAPID_SUBSCRIBER")
	if subscriber == "" {
		subscriber = "mailto:admin@campusconnect.app"
	}

	return &Dispatcher{
		Subs:       subs,
		Send:       webpush.SendNotificationWithContext,
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Subscriber: subscriber,
		TTL:        defaultTTL,
	}
}

// Result summarizes one dispatch: Total subscriptions attempted, Sent accepted
// by the relay.
type Result struct {
	Sent  int `json:"sent"`
	Total int `json:"total"`
}

// Dispatch attempts delivery to every subscription the user holds. Attempts
// run concurrently and are all-settled: one endpoint failing never blocks or
// fails the others. Endpoints the relay reports gone (404/410) are pruned in
// one bulk delete after every attempt resolves; transient failures are left in
// place with no retry. A user with zero subscriptions is a trivial success.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int, payload models.DeliveryPayload) (Result, error) {
	if userID == 0 {
		return Result{}, ErrMissingUser
	}

	subs, err := d.Subs.GetPushSubscriptions(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return Result{}, nil
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	type outcome struct {
		endpoint string
		sent     bool
		gone     bool
	}

	outcomes := make([]outcome, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub models.PushSubscription) {
			defer wg.Done()
			outcomes[i].endpoint = sub.Endpoint

			resp, err := d.Send(ctx, message, &webpush.Subscription{
				Endpoint: sub.Endpoint,
				Keys: webpush.Keys{
					P256dh: sub.P256dh,
					Auth:   sub.Auth,
				},
			}, &webpush.Options{
				Subscriber:      d.Subscriber,
				VAPIDPublicKey:  d.PublicKey,
				VAPIDPrivateKey: d.PrivateKey,
				TTL:             d.TTL,
			})
			if err != nil {
				// Transient: left in place, no retry.
				log.Printf("Failed to send push to %s: %v", sub.Endpoint, err)
				metrics.PushFailed.Inc()
				return
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
				outcomes[i].gone = true
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				outcomes[i].sent = true
				metrics.PushSent.Inc()
			default:
				body, _ := io.ReadAll(resp.Body)
				log.Printf("Unexpected status %d from %s: %s", resp.StatusCode, sub.Endpoint, body)
				metrics.PushFailed.Inc()
			}
		}(i, sub)
	}
	wg.Wait()

	res := Result{Total: len(subs)}
	var gone []string
	for _, o := range outcomes {
		if o.sent {
			res.Sent++
		}
		if o.gone {
			gone = append(gone, o.endpoint)
		}
	}

	if len(gone) > 0 {
		if err := d.Subs.DeletePushSubscriptions(ctx, gone); err != nil {
			log.Printf("Failed to prune %d dead subscriptions: %v", len(gone), err)
		} else {
			metrics.SubscriptionsPruned.Add(float64(len(gone)))
		}
	}

	return res, nil
}
