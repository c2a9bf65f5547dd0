package main

import (
	"civicpulse/config"
	"civicpulse/models"
	"civicpulse/notification"
	"civicpulse/repository"
	"civicpulse/routes"
	"civicpulse/schema"
	"civicpulse/service"
	"civicpulse/worker"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := config.LoadConfig()

	if cfg.Escalation.TestOverrideMinutes > 0 {
		log.Printf("Test escalation override ENABLED: %d minutes", cfg.Escalation.TestOverrideMinutes)
	}

	// Validate the escalation rule table before anything touches the
	// database: a broken chain must abort startup, never get patched.
	ruleTable, err := models.NewRuleTable(escalationRules(cfg))
	if err != nil {
		log.Fatalf("Invalid escalation configuration: %v", err)
	}

	// Initialize database connection (UTC for consistent timestamps)
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Database connection established")

	// Create missing tables, then verify the columns the escalation
	// pipeline depends on (prevents failures from schema lag).
	schema.InitializeDatabase(db)
	schema.ValidateRequiredColumns(db, nil)

	// Initialize repositories
	complaintRepo := repository.NewComplaintRepository(db)
	escalationRepo := repository.NewEscalationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	officerRepo := repository.NewOfficerRepository(db)

	// Initialize services
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "pilot-secret-key-change-in-production"
	}
	notificationService := service.NewNotificationService(notificationRepo, notification.NewWebhookSender())
	complaintService := service.NewComplaintService(complaintRepo, escalationRepo)
	officerService := service.NewOfficerService(officerRepo, jwtSecret)
	escalationEngine := service.NewEscalationEngine(ruleTable)
	escalationService := service.NewEscalationService(
		escalationEngine,
		complaintRepo,
		notificationService,
		service.SystemClock{},
	)

	// Escalation worker cadence: config-driven, auto-tightened for test runs
	intervalSeconds := cfg.WorkerIntervalSeconds()
	escalationWorker := worker.NewEscalationWorker(
		escalationService,
		time.Duration(intervalSeconds)*time.Second,
	)
	log.Printf("Escalation worker interval: %d seconds", intervalSeconds)
	escalationWorker.Start()

	notificationWorker := worker.NewNotificationWorker(
		notificationService,
		30*time.Second, // Deliver every 30 seconds
	)
	notificationWorker.Start()

	// Setup routes
	router := routes.SetupRoutes(
		complaintService,
		escalationService,
		officerService,
	)

	// Add CORS middleware
	corsHandler := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
	handler := corsHandler(router)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

// escalationRules returns the production rule table, shrunk from hours
// to minutes when the test override is active so one worker cycle can
// fire without waiting out a real window.
func escalationRules(cfg *config.Config) []models.EscalationRule {
	rules := models.DefaultRules()
	if cfg.Escalation.TestOverrideMinutes <= 0 {
		return rules
	}
	override := time.Duration(cfg.Escalation.TestOverrideMinutes) * time.Minute
	for i := range rules {
		rules[i].Delay = override
	}
	log.Printf("Escalation delays overridden to %v for ALL levels (test mode)", override)
	return rules
}
