package service

import (
	"civicpulse/models"
	"civicpulse/notification"
	"civicpulse/repository"
	"context"
	"fmt"
	"log"
)

// maxDeliveryRetries is how many delivery attempts a notification gets
// before it is marked failed for good.
const maxDeliveryRetries = 3

// NotificationService is the platform's NotificationSink: Emit persists
// the notice as a pending row, and the notification worker drains
// pending rows through the delivery sender. Persisting first keeps
// Emit fire-and-forget for the escalation pipeline while surviving
// process restarts.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	sender           notification.Sender
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	sender notification.Sender,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		sender:           sender,
	}
}

// Emit queues an escalation notice for delivery. Implements
// NotificationSink; an error here is logged by the caller and never
// blocks the transition that produced the notice.
func (s *NotificationService) Emit(notice models.EscalationNotice) error {
	n := &models.Notification{
		ComplaintID: notice.ComplaintID,
		FromLevel:   notice.FromLevel,
		ToLevel:     notice.ToLevel.String(),
		Reason:      notice.Reason,
	}
	if notice.RecipientUserID != nil {
		n.RecipientUserID.Int64 = *notice.RecipientUserID
		n.RecipientUserID.Valid = true
	}
	if err := s.notificationRepo.CreateNotification(n); err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}
	log.Printf("[NOTIFICATION] Queued notification %d for complaint %d (level %d -> %s)",
		n.NotificationID, n.ComplaintID, n.FromLevel, n.ToLevel)
	return nil
}

// ProcessPending delivers queued notifications. Called by the
// notification worker; safe to call repeatedly.
func (s *NotificationService) ProcessPending(ctx context.Context, limit int) (sent, failed int, err error) {
	pending, err := s.notificationRepo.GetPendingNotifications(limit)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load pending notifications: %w", err)
	}

	for i := range pending {
		n := &pending[i]
		if err := s.sender.Send(ctx, n); err != nil {
			failed++
			log.Printf("[NOTIFICATION] Delivery failed for notification %d: %v", n.NotificationID, err)
			if markErr := s.notificationRepo.MarkFailed(n.NotificationID, err.Error(), maxDeliveryRetries); markErr != nil {
				log.Printf("[NOTIFICATION] Could not record failure for notification %d: %v", n.NotificationID, markErr)
			}
			continue
		}
		sent++
		if markErr := s.notificationRepo.MarkSent(n.NotificationID); markErr != nil {
			log.Printf("[NOTIFICATION] Could not mark notification %d sent: %v", n.NotificationID, markErr)
		}
	}
	return sent, failed, nil
}
