package handler

import (
	"civicpulse/middleware"
	"civicpulse/models"
	"civicpulse/repository"
	"civicpulse/service"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ComplaintHandler handles HTTP requests for complaint operations
type ComplaintHandler struct {
	complaintService  *service.ComplaintService
	escalationService *service.EscalationService
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(
	complaintService *service.ComplaintService,
	escalationService *service.EscalationService,
) *ComplaintHandler {
	return &ComplaintHandler{
		complaintService:  complaintService,
		escalationService: escalationService,
	}
}

// CreateComplaintRequest is the payload for filing a complaint
type CreateComplaintRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
}

// CreateComplaint handles POST /api/v1/complaints
func (h *ComplaintHandler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.CitizenIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Missing citizen identity")
		return
	}

	var req CreateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	complaint, err := h.complaintService.CreateComplaint(
		citizenID,
		req.Title,
		req.Description,
		models.Category(req.Category),
		models.Severity(req.Severity),
	)
	if errors.Is(err, service.ErrInvalidCategory) {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "Unknown category; expected one of rail, road, fire, cyber, police, court")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, complaint)
}

// GetUserComplaints handles GET /api/v1/complaints
func (h *ComplaintHandler) GetUserComplaints(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.CitizenIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Missing citizen identity")
		return
	}

	complaints, err := h.complaintService.GetComplaintsByCitizen(citizenID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"complaints": complaints})
}

// GetComplaintByID handles GET /api/v1/complaints/{id}
func (h *ComplaintHandler) GetComplaintByID(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := complaintIDFromPath(w, r)
	if !ok {
		return
	}

	complaint, err := h.complaintService.GetComplaint(complaintID)
	if errors.Is(err, repository.ErrComplaintNotFound) {
		respondWithError(w, http.StatusNotFound, "Not Found", "Complaint not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, complaint)
}

// GetTimeline handles GET /api/v1/complaints/{id}/timeline
func (h *ComplaintHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := complaintIDFromPath(w, r)
	if !ok {
		return
	}

	events, err := h.complaintService.GetTimeline(complaintID)
	if errors.Is(err, repository.ErrComplaintNotFound) {
		respondWithError(w, http.StatusNotFound, "Not Found", "Complaint not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// GetEscalationStatus handles GET /api/v1/complaints/{id}/escalation.
// When the snapshot cannot be read the timer degrades to an explicit
// unknown payload; a countdown is never fabricated.
func (h *ComplaintHandler) GetEscalationStatus(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := complaintIDFromPath(w, r)
	if !ok {
		return
	}

	status, err := h.escalationService.GetEscalationStatus(complaintID)
	if errors.Is(err, repository.ErrComplaintNotFound) {
		respondWithError(w, http.StatusNotFound, "Not Found", "Complaint not found")
		return
	}
	if err != nil {
		log.Printf("[HANDLER] Escalation status unavailable for complaint %d: %v", complaintID, err)
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"complaint_id": complaintID,
			"known":        false,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"complaint_id":      status.ComplaintID,
		"known":             true,
		"level":             status.Level,
		"level_info":        status.LevelInfo,
		"timer":             status.Timer,
		"progress_percent":  status.Progress,
		"remaining_hours":   status.Hours,
		"remaining_minutes": status.Minutes,
	})
}

// ResolveComplaint handles POST /api/v1/complaints/{id}/resolve
func (h *ComplaintHandler) ResolveComplaint(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.complaintService.ResolveComplaint, "resolved")
}

// RejectComplaint handles POST /api/v1/complaints/{id}/reject
func (h *ComplaintHandler) RejectComplaint(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.complaintService.RejectComplaint, "rejected")
}

func (h *ComplaintHandler) setStatus(
	w http.ResponseWriter,
	r *http.Request,
	apply func(int64) error,
	label string,
) {
	complaintID, ok := complaintIDFromPath(w, r)
	if !ok {
		return
	}

	err := apply(complaintID)
	if errors.Is(err, repository.ErrComplaintNotFound) {
		respondWithError(w, http.StatusConflict, "Conflict", "Complaint not found or already closed")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"complaint_id": complaintID,
		"status":       label,
	})
}

// complaintIDFromPath parses {id}; on failure it writes the error
// response and returns ok=false.
func complaintIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := mux.Vars(r)["id"]
	complaintID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "Invalid complaint id")
		return 0, false
	}
	return complaintID, true
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	response := models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	}
	respondWithJSON(w, statusCode, response)
}
