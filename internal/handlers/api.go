package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
)

// APIHandler serves the health and version endpoints.
type APIHandler struct {
	completion interfaces.CompletionService
	logger     arbor.ILogger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(completion interfaces.CompletionService, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		completion: completion,
		logger:     logger,
	}
}

// HealthHandler handles GET /api/health
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	completionStatus := "ok"
	if err := h.completion.HealthCheck(r.Context()); err != nil {
		completionStatus = err.Error()
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"completion": completionStatus,
		"version":    common.GetVersion(),
	})
}

// VersionHandler handles GET /api/version
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetFullVersion(),
	})
}
