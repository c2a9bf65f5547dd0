package handler

import (
	"civicpulse/models"
	"civicpulse/service"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// EscalationHandler handles HTTP requests for escalation operations
type EscalationHandler struct {
	escalationService *service.EscalationService
}

// NewEscalationHandler creates a new escalation handler
func NewEscalationHandler(escalationService *service.EscalationService) *EscalationHandler {
	return &EscalationHandler{escalationService: escalationService}
}

// ProcessEscalations handles POST /api/v1/escalations/process
// Manually triggers an evaluation pass (useful for testing or manual runs)
func (h *EscalationHandler) ProcessEscalations(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.escalationService.ProcessEscalations()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"processed": len(outcomes),
		"outcomes":  outcomes,
	})
}

// GetLevelInfo handles GET /api/v1/escalations/levels/{level}
// Static display metadata for an escalation level; out-of-range levels
// fall back to level 1.
func (h *EscalationHandler) GetLevelInfo(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(mux.Vars(r)["level"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "Invalid level")
		return
	}
	respondWithJSON(w, http.StatusOK, models.EscalationLevelInfo(level))
}
