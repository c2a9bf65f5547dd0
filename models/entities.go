package models

import (
	"database/sql"
	"time"
)

// ComplaintStatus represents the lifecycle status of a complaint.
// Escalation computation is suppressed once the status leaves open.
type ComplaintStatus string

const (
	StatusOpen     ComplaintStatus = "open"
	StatusResolved ComplaintStatus = "resolved"
	StatusRejected ComplaintStatus = "rejected"
)

// IsOpen reports whether escalation is still active for this status.
func (s ComplaintStatus) IsOpen() bool { return s == StatusOpen }

// Category represents the incident category of a complaint
type Category string

const (
	CategoryRail   Category = "rail"
	CategoryRoad   Category = "road"
	CategoryFire   Category = "fire"
	CategoryCyber  Category = "cyber"
	CategoryPolice Category = "police"
	CategoryCourt  Category = "court"
)

// ValidCategory reports whether c is a known incident category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryRail, CategoryRoad, CategoryFire, CategoryCyber, CategoryPolice, CategoryCourt:
		return true
	}
	return false
}

// ActorType represents who performed an action
type ActorType string

const (
	ActorCitizen ActorType = "citizen"
	ActorOfficer ActorType = "officer"
	ActorSystem  ActorType = "system"
)

// Complaint represents a complaint entity
type Complaint struct {
	ComplaintID           int64           `db:"complaint_id" json:"complaint_id"`
	ComplaintNumber       string          `db:"complaint_number" json:"complaint_number"`
	CitizenID             int64           `db:"citizen_id" json:"citizen_id"`
	Title                 string          `db:"title" json:"title"`
	Description           string          `db:"description" json:"description"`
	Category              Category        `db:"category" json:"category"`
	Severity              Severity        `db:"severity" json:"severity"`
	Status                ComplaintStatus `db:"status" json:"status"`
	EscalationLevel       int             `db:"escalation_level" json:"escalation_level"`
	CurrentLevelStartedAt time.Time       `db:"current_level_started_at" json:"current_level_started_at"`
	AssignedOfficerID     sql.NullInt64   `db:"assigned_officer_id" json:"assigned_officer_id"`
	ResolvedAt            sql.NullTime    `db:"resolved_at" json:"resolved_at"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt             sql.NullTime    `db:"updated_at" json:"updated_at"`
}

// EscalationSnapshot returns the escalation-relevant view of the
// complaint, as consumed by the engine.
func (c *Complaint) EscalationSnapshot() EscalationState {
	state := EscalationState{
		ComplaintID:           c.ComplaintID,
		Severity:              c.Severity,
		Level:                 c.EscalationLevel,
		Status:                c.Status,
		CurrentLevelStartedAt: c.CurrentLevelStartedAt,
	}
	if c.AssignedOfficerID.Valid {
		officerID := c.AssignedOfficerID.Int64
		state.AssignedOfficerID = &officerID
	}
	return state
}

// Officer represents an officer account
type Officer struct {
	OfficerID    int64          `db:"officer_id" json:"officer_id"`
	FullName     string         `db:"full_name" json:"full_name"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Designation  sql.NullString `db:"designation" json:"designation"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
