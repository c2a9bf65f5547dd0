package handler

import (
	"civicpulse/middleware"
	"civicpulse/repository"
	"civicpulse/service"
	"encoding/json"
	"errors"
	"net/http"
)

// OfficerHandler handles HTTP requests for officer operations
type OfficerHandler struct {
	officerService   *service.OfficerService
	complaintService *service.ComplaintService
}

// NewOfficerHandler creates a new officer handler
func NewOfficerHandler(
	officerService *service.OfficerService,
	complaintService *service.ComplaintService,
) *OfficerHandler {
	return &OfficerHandler{
		officerService:   officerService,
		complaintService: complaintService,
	}
}

// LoginRequest is the officer login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/officers/login
func (h *OfficerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "email and password are required")
		return
	}

	token, officer, err := h.officerService.Login(req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid email or password")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"officer": officer,
	})
}

// GetQueue handles GET /api/v1/officers/queue
func (h *OfficerHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	officerID, ok := middleware.OfficerIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Missing officer identity")
		return
	}

	complaints, err := h.complaintService.GetOfficerQueue(officerID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"complaints": complaints})
}

// AcceptComplaint handles POST /api/v1/officers/complaints/{id}/accept.
// Acceptance assigns the officer; the escalation level and timer are
// untouched.
func (h *OfficerHandler) AcceptComplaint(w http.ResponseWriter, r *http.Request) {
	officerID, ok := middleware.OfficerIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Missing officer identity")
		return
	}
	complaintID, ok := complaintIDFromPath(w, r)
	if !ok {
		return
	}

	err := h.complaintService.AcceptComplaint(complaintID, officerID)
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
		"accepted_by":  officerID,
	})
}

// IgnoreComplaint handles POST /api/v1/officers/complaints/{id}/ignore.
// The complaint is hidden from this officer's queue only; it is not
// closed and keeps escalating.
func (h *OfficerHandler) IgnoreComplaint(w http.ResponseWriter, r *http.Request) {
	officerID, ok := middleware.OfficerIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Missing officer identity")
		return
	}
	complaintID, ok := complaintIDFromPath(w, r)
	if !ok {
		return
	}

	err := h.complaintService.IgnoreComplaint(complaintID, officerID)
	if errors.Is(err, repository.ErrComplaintNotFound) {
		respondWithError(w, http.StatusNotFound, "Not Found", "Complaint not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"complaint_id": complaintID,
		"ignored_by":   officerID,
	})
}
