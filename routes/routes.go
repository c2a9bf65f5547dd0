package routes

import (
	"civicpulse/handler"
	"civicpulse/middleware"
	"civicpulse/service"
	"net/http"
	"os"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	complaintService *service.ComplaintService,
	escalationService *service.EscalationService,
	officerService *service.OfficerService,
) *mux.Router {
	router := mux.NewRouter()

	// Initialize handlers
	complaintHandler := handler.NewComplaintHandler(complaintService, escalationService)
	escalationHandler := handler.NewEscalationHandler(escalationService)
	officerHandler := handler.NewOfficerHandler(officerService, complaintService)

	// Initialize auth middleware
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "pilot-secret-key-change-in-production" // Default for pilot
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtSecret)

	// API v1 routes
	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	// Complaint routes (citizen scope)
	complaints := apiV1.PathPrefix("/complaints").Subrouter()
	complaints.Handle("", authMiddleware.RequireCitizen(http.HandlerFunc(complaintHandler.GetUserComplaints))).Methods("GET")
	complaints.Handle("", authMiddleware.RequireCitizen(http.HandlerFunc(complaintHandler.CreateComplaint))).Methods("POST")
	complaints.Handle("/{id}", authMiddleware.RequireCitizen(http.HandlerFunc(complaintHandler.GetComplaintByID))).Methods("GET")
	complaints.Handle("/{id}/timeline", authMiddleware.RequireCitizen(http.HandlerFunc(complaintHandler.GetTimeline))).Methods("GET")
	complaints.Handle("/{id}/escalation", authMiddleware.RequireCitizen(http.HandlerFunc(complaintHandler.GetEscalationStatus))).Methods("GET")
	complaints.Handle("/{id}/resolve", authMiddleware.RequireCitizen(http.HandlerFunc(complaintHandler.ResolveComplaint))).Methods("POST")
	complaints.Handle("/{id}/reject", authMiddleware.RequireOfficer(http.HandlerFunc(complaintHandler.RejectComplaint))).Methods("POST")

	// Officer routes
	officers := apiV1.PathPrefix("/officers").Subrouter()
	officers.HandleFunc("/login", officerHandler.Login).Methods("POST")
	officers.Handle("/queue", authMiddleware.RequireOfficer(http.HandlerFunc(officerHandler.GetQueue))).Methods("GET")
	officers.Handle("/complaints/{id}/accept", authMiddleware.RequireOfficer(http.HandlerFunc(officerHandler.AcceptComplaint))).Methods("POST")
	officers.Handle("/complaints/{id}/ignore", authMiddleware.RequireOfficer(http.HandlerFunc(officerHandler.IgnoreComplaint))).Methods("POST")

	// Escalation routes
	escalations := apiV1.PathPrefix("/escalations").Subrouter()
	escalations.HandleFunc("/process", escalationHandler.ProcessEscalations).Methods("POST")
	escalations.HandleFunc("/levels/{level}", escalationHandler.GetLevelInfo).Methods("GET")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return router
}
