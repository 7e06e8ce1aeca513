package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/services/stats"
)

// StatsHandler serves the trailing-week aggregates.
type StatsHandler struct {
	storage interfaces.ProductStorage
	logger  arbor.ILogger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(storage interfaces.ProductStorage, logger arbor.ILogger) *StatsHandler {
	return &StatsHandler{
		storage: storage,
		logger:  logger,
	}
}

// DailyHandler handles GET /api/stats/daily. The response always carries
// exactly seven buckets, today last.
func (h *StatsHandler) DailyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	products, err := h.storage.ListProductsAscending(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load products for stats")
		WriteError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	buckets := stats.Aggregate(products, time.Now())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"days":    len(buckets),
		"buckets": buckets,
	})
}
