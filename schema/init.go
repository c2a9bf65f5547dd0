// Package schema: safe database initialization — create only missing tables, never drop or overwrite.

package schema

import (
	"database/sql"
	"log"
)

// InitializeDatabase ensures core tables exist. Checks
// INFORMATION_SCHEMA.TABLES and creates only missing tables, in
// dependency order: officers → complaints → escalation_events →
// notifications → officer_ignores. Never drops or recreates tables.
func InitializeDatabase(db *sql.DB) {
	tables := []struct {
		name   string
		create string
	}{
		{"officers", createOfficersTable},
		{"complaints", createComplaintsTable},
		{"escalation_events", createEscalationEventsTable},
		{"notifications", createNotificationsTable},
		{"officer_ignores", createOfficerIgnoresTable},
	}

	for _, t := range tables {
		exists, err := tableExists(db, t.name)
		if err != nil {
			log.Fatalf("[SCHEMA] Failed to check if table %s exists: %v", t.name, err)
		}
		if exists {
			log.Printf("[SCHEMA] %s table exists", t.name)
			continue
		}
		if _, err := db.Exec(t.create); err != nil {
			log.Fatalf("[SCHEMA] Failed to create table %s: %v", t.name, err)
		}
		log.Printf("[SCHEMA] created %s table", t.name)
	}
}

// tableExists checks INFORMATION_SCHEMA for a table in the current database
func tableExists(db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
	`, table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const createOfficersTable = `
CREATE TABLE officers (
	officer_id BIGINT AUTO_INCREMENT PRIMARY KEY,
	full_name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	designation VARCHAR(255) NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createComplaintsTable = `
CREATE TABLE complaints (
	complaint_id BIGINT AUTO_INCREMENT PRIMARY KEY,
	complaint_number VARCHAR(64) NOT NULL UNIQUE,
	citizen_id BIGINT NOT NULL,
	title VARCHAR(500) NOT NULL,
	description TEXT NOT NULL,
	category ENUM('rail','road','fire','cyber','police','court') NOT NULL,
	severity ENUM('low','medium','high') NOT NULL DEFAULT 'medium',
	status ENUM('open','resolved','rejected') NOT NULL DEFAULT 'open',
	escalation_level INT NOT NULL DEFAULT 1,
	current_level_started_at DATETIME(3) NOT NULL,
	assigned_officer_id BIGINT NULL,
	resolved_at DATETIME NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NULL,
	INDEX idx_complaints_status (status),
	INDEX idx_complaints_citizen (citizen_id),
	CONSTRAINT fk_complaints_officer FOREIGN KEY (assigned_officer_id) REFERENCES officers(officer_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createEscalationEventsTable = `
CREATE TABLE escalation_events (
	event_id BIGINT AUTO_INCREMENT PRIMARY KEY,
	complaint_id BIGINT NOT NULL,
	from_level INT NOT NULL,
	to_level INT NULL,
	escalated_at DATETIME(3) NOT NULL,
	reason VARCHAR(500) NOT NULL,
	escalated_by BIGINT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_escalation_events_complaint (complaint_id),
	CONSTRAINT fk_escalation_events_complaint FOREIGN KEY (complaint_id) REFERENCES complaints(complaint_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createNotificationsTable = `
CREATE TABLE notifications (
	notification_id BIGINT AUTO_INCREMENT PRIMARY KEY,
	complaint_id BIGINT NOT NULL,
	recipient_user_id BIGINT NULL,
	from_level INT NOT NULL,
	to_level VARCHAR(16) NOT NULL,
	reason VARCHAR(500) NOT NULL,
	status ENUM('pending','sent','failed') NOT NULL DEFAULT 'pending',
	retry_count INT NOT NULL DEFAULT 0,
	error_message VARCHAR(1000) NULL,
	sent_at DATETIME NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_notifications_status (status),
	CONSTRAINT fk_notifications_complaint FOREIGN KEY (complaint_id) REFERENCES complaints(complaint_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createOfficerIgnoresTable = `
CREATE TABLE officer_ignores (
	officer_id BIGINT NOT NULL,
	complaint_id BIGINT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (officer_id, complaint_id),
	CONSTRAINT fk_ignores_officer FOREIGN KEY (officer_id) REFERENCES officers(officer_id),
	CONSTRAINT fk_ignores_complaint FOREIGN KEY (complaint_id) REFERENCES complaints(complaint_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
