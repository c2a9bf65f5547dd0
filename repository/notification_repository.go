package repository

import (
	"civicpulse/models"
	"database/sql"
	"fmt"
	"time"
)

// NotificationRepository handles database operations for queued
// escalation notifications.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateNotification queues a notification for delivery
func (r *NotificationRepository) CreateNotification(n *models.Notification) error {
	n.Status = models.NotificationStatusPending
	n.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO notifications (
			complaint_id, recipient_user_id, from_level, to_level,
			reason, status, retry_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, ?)
	`
	result, err := r.db.Exec(
		query,
		n.ComplaintID,
		n.RecipientUserID,
		n.FromLevel,
		n.ToLevel,
		n.Reason,
		n.Status,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	notificationID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notification ID: %w", err)
	}
	n.NotificationID = notificationID
	return nil
}

// GetPendingNotifications returns up to limit undelivered notifications,
// oldest first.
func (r *NotificationRepository) GetPendingNotifications(limit int) ([]models.Notification, error) {
	query := `
		SELECT notification_id, complaint_id, recipient_user_id, from_level,
			to_level, reason, status, retry_count, error_message, sent_at, created_at
		FROM notifications
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.NotificationID,
			&n.ComplaintID,
			&n.RecipientUserID,
			&n.FromLevel,
			&n.ToLevel,
			&n.Reason,
			&n.Status,
			&n.RetryCount,
			&n.ErrorMessage,
			&n.SentAt,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

// MarkSent records successful delivery
func (r *NotificationRepository) MarkSent(notificationID int64) error {
	_, err := r.db.Exec(`
		UPDATE notifications
		SET status = 'sent', sent_at = ?
		WHERE notification_id = ?
	`, time.Now().UTC(), notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure. Below maxRetries the row goes
// back to pending for the next worker pass.
func (r *NotificationRepository) MarkFailed(notificationID int64, deliveryErr string, maxRetries int) error {
	_, err := r.db.Exec(`
		UPDATE notifications
		SET retry_count = retry_count + 1,
			error_message = ?,
			status = IF(retry_count + 1 >= ?, 'failed', 'pending')
		WHERE notification_id = ?
	`, sql.NullString{String: deliveryErr, Valid: deliveryErr != ""}, maxRetries, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}
