package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"

	"campus-connect-go/internal/dispatch"
	"campus-connect-go/internal/models"
)

type stubSubs struct {
	subs []models.PushSubscription
}

func (s *stubSubs) SavePushSubscription(ctx context.Context, userID int, endpoint, p256dh, auth string) error {
	return nil
}

func (s *stubSubs) GetPushSubscriptions(ctx context.Context, userID int) ([]models.PushSubscription, error) {
	return s.subs, nil
}

func (s *stubSubs) DeletePushSubscription(ctx context.Context, userID int, endpoint string) error {
	return nil
}

func (s *stubSubs) DeletePushSubscriptions(ctx context.Context, endpoints []string) error {
	return nil
}

func okSend(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return &http.Response{StatusCode: http.StatusCreated, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func newPushTestHandler(subs *stubSubs) *Handler {
	return NewHandler(nil, nil, &dispatch.Dispatcher{
		Subs:       subs,
		Send:       okSend,
		PublicKey:  "test-public",
		PrivateKey: "test-private",
		Subscriber: "mailto:test@example.com",
		TTL:        30,
	})
}

func TestDispatchHandlerMissingUserID(t *testing.T) {
	h := newPushTestHandler(&stubSubs{})

	req := httptest.NewRequest(http.MethodPost, "/api/push/send", strings.NewReader(`{"title":"hi"}`))
	rec := httptest.NewRecorder()
	h.DispatchHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("expected a JSON error body")
	}
}

func TestDispatchHandlerPreflight(t *testing.T) {
	h := newPushTestHandler(&stubSubs{})

	req := httptest.NewRequest(http.MethodOptions, "/api/push/send", nil)
	rec := httptest.NewRecorder()
	h.DispatchHandler(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing permissive CORS header")
	}
}

func TestDispatchHandlerReportsSentAndTotal(t *testing.T) {
	h := newPushTestHandler(&stubSubs{subs: []models.PushSubscription{
		{UserID: 7, Endpoint: "https://push.example.com/a", P256dh: "k", Auth: "a"},
		{UserID: 7, Endpoint: "https://push.example.com/b", P256dh: "k", Auth: "a"},
	}})

	req := httptest.NewRequest(http.MethodPost, "/api/push/send", strings.NewReader(`{"user_id":7,"title":"hi","body":"there"}`))
	rec := httptest.NewRecorder()
	h.DispatchHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res dispatch.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if res.Sent != 2 || res.Total != 2 {
		t.Fatalf("expected sent=2 total=2, got %+v", res)
	}
}

func TestDispatchHandlerNoSubscriptionsIsSuccess(t *testing.T) {
	h := newPushTestHandler(&stubSubs{})

	req := httptest.NewRequest(http.MethodPost, "/api/push/send", strings.NewReader(`{"user_id":7}`))
	rec := httptest.NewRecorder()
	h.DispatchHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res dispatch.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if res.Sent != 0 || res.Total != 0 {
		t.Fatalf("expected sent=0 total=0, got %+v", res)
	}
}
