package repository

import (
	"civicpulse/models"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrStaleWrite is reported when a guarded write finds the complaint's
// escalation state changed since it was read. The caller re-reads and
// re-evaluates; this is the per-complaint serialization mechanism.
var ErrStaleWrite = errors.New("complaint state changed since read")

// ErrComplaintNotFound is returned for lookups of unknown complaints.
var ErrComplaintNotFound = errors.New("complaint not found")

// ComplaintRepository handles database operations for complaints,
// including the guarded escalation writes consumed by the engine.
type ComplaintRepository struct {
	db *sql.DB
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// GenerateComplaintNumber generates a unique human-facing complaint number
func (r *ComplaintRepository) GenerateComplaintNumber() string {
	uniqueID := uuid.New().String()[:8]
	return fmt.Sprintf("CP-%s-%s", time.Now().UTC().Format("20060102"), strings.ToUpper(uniqueID))
}

// CreateComplaint inserts a new complaint. The escalation track starts
// at level 1 with the window opening at creation time.
func (r *ComplaintRepository) CreateComplaint(complaint *models.Complaint) error {
	now := time.Now().UTC()
	complaint.ComplaintNumber = r.GenerateComplaintNumber()
	complaint.Status = models.StatusOpen
	complaint.EscalationLevel = 1
	complaint.CurrentLevelStartedAt = now
	complaint.CreatedAt = now

	query := `
		INSERT INTO complaints (
			complaint_number, citizen_id, title, description, category,
			severity, status, escalation_level, current_level_started_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(
		query,
		complaint.ComplaintNumber,
		complaint.CitizenID,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Severity,
		complaint.Status,
		complaint.EscalationLevel,
		complaint.CurrentLevelStartedAt,
		complaint.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}

	complaintID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get complaint ID: %w", err)
	}
	complaint.ComplaintID = complaintID
	return nil
}

const complaintColumns = `
	complaint_id, complaint_number, citizen_id, title, description,
	category, severity, status, escalation_level, current_level_started_at,
	assigned_officer_id, resolved_at, created_at, updated_at
`

func scanComplaint(row interface{ Scan(...interface{}) error }) (*models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(
		&c.ComplaintID,
		&c.ComplaintNumber,
		&c.CitizenID,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.Severity,
		&c.Status,
		&c.EscalationLevel,
		&c.CurrentLevelStartedAt,
		&c.AssignedOfficerID,
		&c.ResolvedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetComplaintByID retrieves a complaint by its ID
func (r *ComplaintRepository) GetComplaintByID(complaintID int64) (*models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE complaint_id = ?`, complaintColumns)
	complaint, err := scanComplaint(r.db.QueryRow(query, complaintID))
	if err == sql.ErrNoRows {
		return nil, ErrComplaintNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return complaint, nil
}

// GetComplaintByNumber retrieves a complaint by its public number
func (r *ComplaintRepository) GetComplaintByNumber(complaintNumber string) (*models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE complaint_number = ?`, complaintColumns)
	complaint, err := scanComplaint(r.db.QueryRow(query, complaintNumber))
	if err == sql.ErrNoRows {
		return nil, ErrComplaintNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return complaint, nil
}

// GetComplaintsByCitizenID lists a citizen's complaints, newest first
func (r *ComplaintRepository) GetComplaintsByCitizenID(citizenID int64) ([]models.Complaint, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM complaints
		WHERE citizen_id = ?
		ORDER BY created_at DESC
	`, complaintColumns)

	rows, err := r.db.Query(query, citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}
	defer rows.Close()

	var complaints []models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaints: %w", err)
	}
	return complaints, nil
}

// GetOpenComplaintsForOfficer lists open complaints an officer can work,
// excluding ones that officer has chosen to ignore. Ignoring is a
// per-officer list filter, not a complaint state change.
func (r *ComplaintRepository) GetOpenComplaintsForOfficer(officerID int64) ([]models.Complaint, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM complaints c
		WHERE c.status = 'open'
			AND NOT EXISTS (
				SELECT 1 FROM officer_ignores i
				WHERE i.officer_id = ? AND i.complaint_id = c.complaint_id
			)
		ORDER BY c.escalation_level DESC, c.created_at ASC
	`, complaintColumns)

	rows, err := r.db.Query(query, officerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query officer queue: %w", err)
	}
	defer rows.Close()

	var complaints []models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating officer queue: %w", err)
	}
	return complaints, nil
}

// GetEscalationState reads the escalation-relevant snapshot of a
// complaint (the engine's view).
func (r *ComplaintRepository) GetEscalationState(complaintID int64) (models.EscalationState, error) {
	query := `
		SELECT complaint_id, severity, escalation_level, status, current_level_started_at, assigned_officer_id
		FROM complaints
		WHERE complaint_id = ?
	`
	var state models.EscalationState
	var officerID sql.NullInt64
	err := r.db.QueryRow(query, complaintID).Scan(
		&state.ComplaintID,
		&state.Severity,
		&state.Level,
		&state.Status,
		&state.CurrentLevelStartedAt,
		&officerID,
	)
	if err == sql.ErrNoRows {
		return models.EscalationState{}, ErrComplaintNotFound
	}
	if err != nil {
		return models.EscalationState{}, fmt.Errorf("failed to read escalation state: %w", err)
	}
	if officerID.Valid {
		state.AssignedOfficerID = &officerID.Int64
	}
	return state, nil
}

// ListOpenStates returns escalation snapshots of all open complaints,
// oldest first, for the worker's evaluation pass.
func (r *ComplaintRepository) ListOpenStates() ([]models.EscalationState, error) {
	query := `
		SELECT complaint_id, severity, escalation_level, status, current_level_started_at, assigned_officer_id
		FROM complaints
		WHERE status = 'open'
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query open complaints: %w", err)
	}
	defer rows.Close()

	var states []models.EscalationState
	for rows.Next() {
		var state models.EscalationState
		var officerID sql.NullInt64
		err := rows.Scan(
			&state.ComplaintID,
			&state.Severity,
			&state.Level,
			&state.Status,
			&state.CurrentLevelStartedAt,
			&officerID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation state: %w", err)
		}
		if officerID.Valid {
			state.AssignedOfficerID = &officerID.Int64
		}
		states = append(states, state)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating open complaints: %w", err)
	}
	return states, nil
}

// ApplyTransition advances the escalation level and appends the
// transition event in one transaction. The UPDATE is guarded by the
// expected level and window start; zero rows affected means another
// writer transitioned first and the caller gets ErrStaleWrite.
func (r *ComplaintRepository) ApplyTransition(
	expected models.EscalationState,
	newLevel int,
	newStartedAt time.Time,
	event *models.EscalationEvent,
) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE complaints
		SET escalation_level = ?, current_level_started_at = ?, updated_at = ?
		WHERE complaint_id = ?
			AND status = 'open'
			AND escalation_level = ?
			AND current_level_started_at = ?
	`,
		newLevel,
		newStartedAt,
		newStartedAt,
		expected.ComplaintID,
		expected.Level,
		expected.CurrentLevelStartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update escalation level: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrStaleWrite
	}

	if err := insertEscalationEvent(tx, event); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

// CloseEscalated closes a complaint whose chain is exhausted, with the
// same guard as ApplyTransition. The level field keeps its terminal
// numeric value; only the status and the close event record it.
func (r *ComplaintRepository) CloseEscalated(
	expected models.EscalationState,
	closedAt time.Time,
	event *models.EscalationEvent,
) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE complaints
		SET status = 'resolved', resolved_at = ?, updated_at = ?
		WHERE complaint_id = ?
			AND status = 'open'
			AND escalation_level = ?
			AND current_level_started_at = ?
	`,
		closedAt,
		closedAt,
		expected.ComplaintID,
		expected.Level,
		expected.CurrentLevelStartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to close complaint: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check close result: %w", err)
	}
	if affected == 0 {
		return ErrStaleWrite
	}

	if err := insertEscalationEvent(tx, event); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit close: %w", err)
	}
	return nil
}

// insertEscalationEvent appends one immutable event row. to_level is
// NULL for the close sentinel.
func insertEscalationEvent(tx *sql.Tx, event *models.EscalationEvent) error {
	var toLevel sql.NullInt64
	if !event.ToLevel.IsClose() {
		toLevel = sql.NullInt64{Int64: int64(event.ToLevel.Level()), Valid: true}
	}
	var escalatedBy sql.NullInt64
	if event.EscalatedBy != nil {
		escalatedBy = sql.NullInt64{Int64: *event.EscalatedBy, Valid: true}
	}

	result, err := tx.Exec(`
		INSERT INTO escalation_events (
			complaint_id, from_level, to_level, escalated_at, reason, escalated_by
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		event.ComplaintID,
		event.FromLevel,
		toLevel,
		event.EscalatedAt,
		event.Reason,
		escalatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert escalation event: %w", err)
	}
	eventID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event ID: %w", err)
	}
	event.EventID = eventID
	return nil
}

// SetStatus transitions a complaint's lifecycle status (resolve or
// reject). This also freezes escalation: the status guard on the
// engine's writes makes any in-flight transition a stale write.
func (r *ComplaintRepository) SetStatus(complaintID int64, status models.ComplaintStatus) error {
	now := time.Now().UTC()
	var resolvedAt interface{}
	if status == models.StatusResolved {
		resolvedAt = now
	}
	result, err := r.db.Exec(`
		UPDATE complaints
		SET status = ?, resolved_at = ?, updated_at = ?
		WHERE complaint_id = ? AND status = 'open'
	`, status, resolvedAt, now, complaintID)
	if err != nil {
		return fmt.Errorf("failed to update complaint status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update: %w", err)
	}
	if affected == 0 {
		return ErrComplaintNotFound
	}
	return nil
}

// AssignOfficer records officer acceptance. Acceptance does not touch
// the escalation level or window: the complaint stays on its timer.
func (r *ComplaintRepository) AssignOfficer(complaintID, officerID int64) error {
	result, err := r.db.Exec(`
		UPDATE complaints
		SET assigned_officer_id = ?, updated_at = ?
		WHERE complaint_id = ? AND status = 'open'
	`, officerID, time.Now().UTC(), complaintID)
	if err != nil {
		return fmt.Errorf("failed to assign officer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if affected == 0 {
		return ErrComplaintNotFound
	}
	return nil
}

// IgnoreComplaint marks a complaint ignored by one officer. Idempotent;
// the complaint itself is untouched.
func (r *ComplaintRepository) IgnoreComplaint(officerID, complaintID int64) error {
	_, err := r.db.Exec(`
		INSERT IGNORE INTO officer_ignores (officer_id, complaint_id)
		VALUES (?, ?)
	`, officerID, complaintID)
	if err != nil {
		return fmt.Errorf("failed to record ignore: %w", err)
	}
	return nil
}
