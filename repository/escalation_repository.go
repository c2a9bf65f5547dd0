package repository

import (
	"civicpulse/models"
	"database/sql"
	"fmt"
	"time"
)

// EscalationRepository reads the append-only escalation event history.
// Events are written by ComplaintRepository inside the transition
// transaction; this repository never mutates them.
type EscalationRepository struct {
	db *sql.DB
}

// NewEscalationRepository creates a new escalation repository
func NewEscalationRepository(db *sql.DB) *EscalationRepository {
	return &EscalationRepository{db: db}
}

// GetEventsByComplaintID returns a complaint's escalation history in
// insertion order.
func (r *EscalationRepository) GetEventsByComplaintID(complaintID int64) ([]models.EscalationEvent, error) {
	query := `
		SELECT event_id, complaint_id, from_level, to_level, escalated_at, reason, escalated_by, created_at
		FROM escalation_events
		WHERE complaint_id = ?
		ORDER BY event_id ASC
	`
	rows, err := r.db.Query(query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query escalation events: %w", err)
	}
	defer rows.Close()

	var events []models.EscalationEvent
	for rows.Next() {
		event, err := scanEscalationEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating escalation events: %w", err)
	}
	return events, nil
}

// GetLastEscalationTime returns when the complaint last transitioned,
// or nil if it never has.
func (r *EscalationRepository) GetLastEscalationTime(complaintID int64) (*time.Time, error) {
	query := `
		SELECT MAX(escalated_at)
		FROM escalation_events
		WHERE complaint_id = ?
	`
	var last sql.NullTime
	err := r.db.QueryRow(query, complaintID).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last escalation time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// CountEvents returns the number of recorded transitions for a complaint.
func (r *EscalationRepository) CountEvents(complaintID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM escalation_events WHERE complaint_id = ?
	`, complaintID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count escalation events: %w", err)
	}
	return count, nil
}

func scanEscalationEvent(rows *sql.Rows) (*models.EscalationEvent, error) {
	var event models.EscalationEvent
	var toLevel sql.NullInt64
	var escalatedBy sql.NullInt64
	err := rows.Scan(
		&event.EventID,
		&event.ComplaintID,
		&event.FromLevel,
		&toLevel,
		&event.EscalatedAt,
		&event.Reason,
		&escalatedBy,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan escalation event: %w", err)
	}
	if toLevel.Valid {
		event.ToLevel = models.NextNumeric(int(toLevel.Int64))
	} else {
		event.ToLevel = models.NextClose()
	}
	if escalatedBy.Valid {
		event.EscalatedBy = &escalatedBy.Int64
	}
	return &event, nil
}
