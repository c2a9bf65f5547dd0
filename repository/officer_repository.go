package repository

import (
	"civicpulse/models"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrOfficerNotFound is returned for lookups of unknown or inactive officers.
var ErrOfficerNotFound = errors.New("officer not found")

// OfficerRepository handles database operations for officer accounts
type OfficerRepository struct {
	db *sql.DB
}

// NewOfficerRepository creates a new officer repository
func NewOfficerRepository(db *sql.DB) *OfficerRepository {
	return &OfficerRepository{db: db}
}

// GetOfficerByEmail retrieves an active officer by login email
func (r *OfficerRepository) GetOfficerByEmail(email string) (*models.Officer, error) {
	query := `
		SELECT officer_id, full_name, email, password_hash, designation, is_active, created_at
		FROM officers
		WHERE email = ? AND is_active = true
	`
	var o models.Officer
	err := r.db.QueryRow(query, email).Scan(
		&o.OfficerID,
		&o.FullName,
		&o.Email,
		&o.PasswordHash,
		&o.Designation,
		&o.IsActive,
		&o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOfficerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get officer: %w", err)
	}
	return &o, nil
}

// GetOfficerByID retrieves an officer by ID
func (r *OfficerRepository) GetOfficerByID(officerID int64) (*models.Officer, error) {
	query := `
		SELECT officer_id, full_name, email, password_hash, designation, is_active, created_at
		FROM officers
		WHERE officer_id = ?
	`
	var o models.Officer
	err := r.db.QueryRow(query, officerID).Scan(
		&o.OfficerID,
		&o.FullName,
		&o.Email,
		&o.PasswordHash,
		&o.Designation,
		&o.IsActive,
		&o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOfficerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get officer: %w", err)
	}
	return &o, nil
}

// CreateOfficer inserts a new officer account (hash already computed)
func (r *OfficerRepository) CreateOfficer(o *models.Officer) error {
	o.CreatedAt = time.Now().UTC()
	result, err := r.db.Exec(`
		INSERT INTO officers (full_name, email, password_hash, designation, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, o.FullName, o.Email, o.PasswordHash, o.Designation, o.IsActive, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create officer: %w", err)
	}
	officerID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get officer ID: %w", err)
	}
	o.OfficerID = officerID
	return nil
}
