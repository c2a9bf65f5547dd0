package models

import (
	"database/sql"
	"time"
)

// NotificationStatus represents the delivery state of a notification
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is a queued escalation notification. Rows are written by
// the escalation pipeline and drained by the notification worker;
// delivery failure never blocks a transition.
type Notification struct {
	NotificationID  int64              `db:"notification_id" json:"notification_id"`
	ComplaintID     int64              `db:"complaint_id" json:"complaint_id"`
	RecipientUserID sql.NullInt64      `db:"recipient_user_id" json:"recipient_user_id"`
	FromLevel       int                `db:"from_level" json:"from_level"`
	ToLevel         string             `db:"to_level" json:"to_level"` // numeric level or "close"
	Reason          string             `db:"reason" json:"reason"`
	Status          NotificationStatus `db:"status" json:"status"`
	RetryCount      int                `db:"retry_count" json:"retry_count"`
	ErrorMessage    sql.NullString     `db:"error_message" json:"error_message"`
	SentAt          sql.NullTime       `db:"sent_at" json:"sent_at"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
}

// EscalationNotice is the event payload handed to a NotificationSink
// when a transition fires.
type EscalationNotice struct {
	ComplaintID     int64     `json:"complaint_id"`
	ComplaintNumber string    `json:"complaint_number,omitempty"`
	FromLevel       int       `json:"from_level"`
	ToLevel         NextLevel `json:"to_level"`
	Reason          string    `json:"reason"`
	RecipientUserID *int64    `json:"recipient_user_id,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
