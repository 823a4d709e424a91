package dispatch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/SherClockHolmes/webpush-go"

	"campus-connect-go/internal/models"
)

type stubSubs struct {
	mu      sync.Mutex
	subs    []models.PushSubscription
	deleted []string
	deletes int
}

func (s *stubSubs) SavePushSubscription(ctx context.Context, userID int, endpoint, p256dh, auth string) error {
	return nil
}

func (s *stubSubs) GetPushSubscriptions(ctx context.Context, userID int) ([]models.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PushSubscription, len(s.subs))
	copy(out, s.subs)
	return out, nil
}

func (s *stubSubs) DeletePushSubscription(ctx context.Context, userID int, endpoint string) error {
	return nil
}

func (s *stubSubs) DeletePushSubscriptions(ctx context.Context, endpoints []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	s.deleted = append(s.deleted, endpoints...)
	kept := s.subs[:0]
	for _, sub := range s.subs {
		gone := false
		for _, e := range endpoints {
			if sub.Endpoint == e {
				gone = true
				break
			}
		}
		if !gone {
			kept = append(kept, sub)
		}
	}
	s.subs = kept
	return nil
}

func subscription(endpoint string) models.PushSubscription {
	return models.PushSubscription{UserID: 1, Endpoint: endpoint, P256dh: "p256dh", Auth: "auth"}
}

func pushResponse(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}
}

func newTestDispatcher(subs *stubSubs, send SendFunc) *Dispatcher {
	return &Dispatcher{
		Subs:       subs,
		Send:       send,
		PublicKey:  "test-public",
		PrivateKey: "test-private",
		Subscriber: "mailto:test@example.com",
		TTL:        30,
	}
}

func TestDispatchMissingUser(t *testing.T) {
	d := newTestDispatcher(&stubSubs{}, nil)
	if _, err := d.Dispatch(context.Background(), 0, models.DeliveryPayload{}); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}
}

func TestDispatchNoSubscriptions(t *testing.T) {
	var calls int32
	var mu sync.Mutex
	send := func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return pushResponse(http.StatusCreated), nil
	}

	subs := &stubSubs{}
	d := newTestDispatcher(subs, send)

	res, err := d.Dispatch(context.Background(), 1, models.DeliveryPayload{Body: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sent != 0 || res.Total != 0 {
		t.Fatalf("expected sent=0 total=0, got %+v", res)
	}
	if calls != 0 {
		t.Fatalf("expected no relay calls, got %d", calls)
	}
	if subs.deletes != 0 {
		t.Fatalf("expected no prune, got %d delete calls", subs.deletes)
	}
}

func TestDispatchPrunesGoneEndpoints(t *testing.T) {
	var mu sync.Mutex
	attempted := map[string]int{}
	send := func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		mu.Lock()
		attempted[s.Endpoint]++
		mu.Unlock()
		if s.Endpoint == "https://push.example.com/b" {
			return pushResponse(http.StatusGone), nil
		}
		return pushResponse(http.StatusCreated), nil
	}

	subs := &stubSubs{subs: []models.PushSubscription{
		subscription("https://push.example.com/a"),
		subscription("https://push.example.com/b"),
		subscription("https://push.example.com/c"),
	}}
	d := newTestDispatcher(subs, send)

	res, err := d.Dispatch(context.Background(), 1, models.DeliveryPayload{Body: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sent != 2 || res.Total != 3 {
		t.Fatalf("expected sent=2 total=3, got %+v", res)
	}
	if subs.deletes != 1 {
		t.Fatalf("expected one bulk prune, got %d", subs.deletes)
	}
	if len(subs.deleted) != 1 || subs.deleted[0] != "https://push.example.com/b" {
		t.Fatalf("expected only endpoint b pruned, got %v", subs.deleted)
	}

	// The pruned endpoint must not be attempted again.
	res, err = d.Dispatch(context.Background(), 1, models.DeliveryPayload{Body: "hi again"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sent != 2 || res.Total != 2 {
		t.Fatalf("expected sent=2 total=2 after prune, got %+v", res)
	}
	if attempted["https://push.example.com/b"] != 1 {
		t.Fatalf("pruned endpoint attempted %d times", attempted["https://push.example.com/b"])
	}
}

func TestDispatchTransientFailureKept(t *testing.T) {
	send := func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		if s.Endpoint == "https://push.example.com/flaky" {
			return nil, errors.New("connection reset")
		}
		return pushResponse(http.StatusCreated), nil
	}

	subs := &stubSubs{subs: []models.PushSubscription{
		subscription("https://push.example.com/a"),
		subscription("https://push.example.com/flaky"),
	}}
	d := newTestDispatcher(subs, send)

	res, err := d.Dispatch(context.Background(), 1, models.DeliveryPayload{Body: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sent != 1 || res.Total != 2 {
		t.Fatalf("expected sent=1 total=2, got %+v", res)
	}
	if subs.deletes != 0 {
		t.Fatalf("transient failure must not prune, got %d delete calls", subs.deletes)
	}
	if len(subs.subs) != 2 {
		t.Fatalf("expected both subscriptions kept, got %d", len(subs.subs))
	}
}

func TestDispatchUnexpectedStatusNotCounted(t *testing.T) {
	send := func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		return pushResponse(http.StatusTooManyRequests), nil
	}

	subs := &stubSubs{subs: []models.PushSubscription{subscription("https://push.example.com/a")}}
	d := newTestDispatcher(subs, send)

	res, err := d.Dispatch(context.Background(), 1, models.DeliveryPayload{Body: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sent != 0 || res.Total != 1 {
		t.Fatalf("expected sent=0 total=1, got %+v", res)
	}
	if subs.deletes != 0 {
		t.Fatalf("429 must not prune, got %d delete calls", subs.deletes)
	}
}
