package notification

import (
	"civicpulse/models"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testNotification() *models.Notification {
	return &models.Notification{
		NotificationID: 7,
		ComplaintID:    42,
		FromLevel:      1,
		ToLevel:        "2",
		Reason:         models.AutoEscalationReason,
	}
}

func newTestSender(url string) *WebhookSender {
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestWebhookSender_Delivers(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := newTestSender(server.URL)
	if err := sender.Send(context.Background(), testNotification()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if body["complaint_id"].(float64) != 42 {
		t.Errorf("unexpected payload %v", body)
	}
	if body["to_level"] != "2" {
		t.Errorf("unexpected to_level %v", body["to_level"])
	}
}

func TestWebhookSender_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := newTestSender(server.URL)
	sender.token = "pilot-secret"
	if err := sender.Send(context.Background(), testNotification()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAuth != "Bearer pilot-secret" {
		t.Errorf("unexpected authorization header %q", gotAuth)
	}
}

func TestWebhookSender_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := newTestSender(server.URL)
	if err := sender.Send(context.Background(), testNotification()); err != nil {
		t.Fatalf("Send should succeed on retry: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestWebhookSender_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	sender := newTestSender(server.URL)
	if err := sender.Send(context.Background(), testNotification()); err == nil {
		t.Fatal("expected an error on a 4xx response")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 attempt on a client error, got %d", got)
	}
}

func TestWebhookSender_ShadowModeWithoutURL(t *testing.T) {
	sender := newTestSender("")
	if err := sender.Send(context.Background(), testNotification()); err != nil {
		t.Fatalf("shadow mode should succeed silently: %v", err)
	}
}

func TestWebhookSender_RejectsInvalidNotification(t *testing.T) {
	sender := newTestSender("")
	err := sender.Send(context.Background(), &models.Notification{})
	if !errors.Is(err, ErrInvalidNotification) {
		t.Fatalf("expected ErrInvalidNotification, got %v", err)
	}
}
