// verify_escalation runs one end-to-end verification: pick the latest
// open complaint, show its timer, run one escalation cycle, and print
// proof from the event history.
// Usage: from project root, run: go run ./cmd/verify_escalation
// Requires .env (or env) with DB_* and optionally TEST_ESCALATION_OVERRIDE_MINUTES=2.
package main

import (
	"civicpulse/config"
	"civicpulse/models"
	"civicpulse/repository"
	"civicpulse/schema"
	"civicpulse/service"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found")
	}
	// Ensure the override so one cycle can fire without waiting hours
	if os.Getenv("TEST_ESCALATION_OVERRIDE_MINUTES") == "" {
		os.Setenv("TEST_ESCALATION_OVERRIDE_MINUTES", "2")
	}
	cfg := config.LoadConfig()

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("DB open: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("DB ping: %v", err)
	}
	schema.ValidateRequiredColumns(db, nil)

	// --- 1) Latest open complaint ---
	var complaintID int64
	err = db.QueryRow(`
		SELECT complaint_id FROM complaints
		WHERE status = 'open'
		ORDER BY complaint_id DESC LIMIT 1
	`).Scan(&complaintID)
	if err == sql.ErrNoRows {
		log.Fatalf("No open complaints in DB - cannot verify escalation")
	}
	if err != nil {
		log.Fatalf("Latest complaint query: %v", err)
	}

	override := time.Duration(cfg.Escalation.TestOverrideMinutes) * time.Minute
	rules := models.DefaultRules()
	for i := range rules {
		rules[i].Delay = override
	}
	ruleTable, err := models.NewRuleTable(rules)
	if err != nil {
		log.Fatalf("Rule table: %v", err)
	}

	complaintRepo := repository.NewComplaintRepository(db)
	escalationRepo := repository.NewEscalationRepository(db)
	engine := service.NewEscalationEngine(ruleTable)
	escalationService := service.NewEscalationService(engine, complaintRepo, nil, service.SystemClock{})

	// --- 2) Timer before ---
	status, err := escalationService.GetEscalationStatus(complaintID)
	if err != nil {
		log.Fatalf("Escalation status: %v", err)
	}
	fmt.Printf("complaint %d: level=%d overdue=%v remaining=%dh%dm progress=%.1f%%\n",
		complaintID, status.Level, status.Timer.Overdue, status.Hours, status.Minutes, status.Progress)

	// --- 3) One evaluation cycle ---
	outcome, err := escalationService.EvaluateComplaint(complaintID)
	if err != nil {
		log.Fatalf("Evaluation: %v", err)
	}
	fmt.Printf("evaluated: escalated=%v transitions=%d closed=%v final_level=%d reason=%s\n",
		outcome.Escalated, outcome.Transitions, outcome.Closed, outcome.FinalLevel, outcome.Reason)

	// --- 4) Proof from event history ---
	events, err := escalationRepo.GetEventsByComplaintID(complaintID)
	if err != nil {
		log.Fatalf("Event history: %v", err)
	}
	for _, e := range events {
		fmt.Printf("event %d: L%d -> %s at %s (%s)\n",
			e.EventID, e.FromLevel, e.ToLevel, e.EscalatedAt.Format(time.RFC3339), e.Reason)
	}
	if outcome.Escalated && len(events) == 0 {
		log.Fatalf("FAIL: escalation reported but no event recorded")
	}
	fmt.Println("verification complete")
}
