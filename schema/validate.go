package schema

import (
	"database/sql"
	"log"
)

// RequiredColumn names a column a feature depends on.
type RequiredColumn struct {
	Table  string
	Column string
}

// defaultRequiredColumns are the columns the escalation pipeline reads
// and the guarded writes update. Schema lag here would silently break
// deadline evaluation, so startup verifies them.
var defaultRequiredColumns = []RequiredColumn{
	{"complaints", "severity"},
	{"complaints", "status"},
	{"complaints", "escalation_level"},
	{"complaints", "current_level_started_at"},
	{"escalation_events", "from_level"},
	{"escalation_events", "to_level"},
	{"escalation_events", "escalated_at"},
}

// ValidateRequiredColumns verifies the columns exist, logging a fatal
// error when one is missing. Pass nil to check the defaults.
func ValidateRequiredColumns(db *sql.DB, required []RequiredColumn) {
	if required == nil {
		required = defaultRequiredColumns
	}
	for _, rc := range required {
		exists, err := columnExists(db, rc.Table, rc.Column)
		if err != nil {
			log.Fatalf("[SCHEMA] Failed to check column %s.%s: %v", rc.Table, rc.Column, err)
		}
		if !exists {
			log.Fatalf("[SCHEMA] Required column %s.%s is missing - run schema migration", rc.Table, rc.Column)
		}
	}
	log.Println("[SCHEMA] Required columns verified")
}

// columnExists checks INFORMATION_SCHEMA for a column in the current database
func columnExists(db *sql.DB, table, column string) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?
	`, table, column).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
