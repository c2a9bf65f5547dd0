package notification

import (
	"bytes"
	"civicpulse/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// ErrInvalidNotification is returned when a notification is missing
// required fields.
var ErrInvalidNotification = errors.New("invalid notification")

// Sender delivers one notification. Delivery/retry semantics belong
// here; the escalation pipeline never waits on them.
type Sender interface {
	Send(ctx context.Context, n *models.Notification) error
}

const maxWebhookRetries = 3

// WebhookSender posts escalation notifications as JSON to a configured
// endpoint (push relay, socket bridge, whatever the deployment wires
// in). With no endpoint configured it is a logged no-op, which is the
// pilot's shadow mode.
type WebhookSender struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhookSender creates a sender from NOTIFY_WEBHOOK_URL and
// NOTIFY_WEBHOOK_TOKEN.
func NewWebhookSender() *WebhookSender {
	return &WebhookSender{
		url:    os.Getenv("NOTIFY_WEBHOOK_URL"),
		token:  os.Getenv("NOTIFY_WEBHOOK_TOKEN"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the notification, retrying with linear backoff on
// transport errors and 5xx responses.
func (s *WebhookSender) Send(ctx context.Context, n *models.Notification) error {
	if n.ComplaintID == 0 {
		return ErrInvalidNotification
	}
	if s.url == "" {
		log.Printf("[NOTIFICATION] Shadow mode: notification %d for complaint %d not delivered (no webhook configured)",
			n.NotificationID, n.ComplaintID)
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"complaint_id":      n.ComplaintID,
		"from_level":        n.FromLevel,
		"to_level":          n.ToLevel,
		"reason":            n.Reason,
		"recipient_user_id": nullableInt(n.RecipientUserID.Int64, n.RecipientUserID.Valid),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxWebhookRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors won't heal on retry.
			break
		}
	}
	return fmt.Errorf("webhook delivery failed after retries: %w", lastErr)
}

func nullableInt(v int64, valid bool) interface{} {
	if !valid {
		return nil
	}
	return v
}
