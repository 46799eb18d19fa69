// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"net/http"

	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/services/search"
	"norelock.dev/reelid/backend/internal/services/system"
	"norelock.dev/reelid/backend/internal/utils"
)

// SearchHandler handles companion web search requests.
type SearchHandler struct {
	searchSvc *search.Service
	metrics   *system.MetricsService
	logger    *utils.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searchSvc *search.Service, metrics *system.MetricsService, logger *utils.Logger) *SearchHandler {
	return &SearchHandler{
		searchSvc: searchSvc,
		metrics:   metrics,
		logger:    logger.Named("search_handler"),
	}
}

// Web handles requests to search the web for a movie or series.
//
// When search is not configured the response carries enabled=false and an
// empty result list rather than an error.
func (h *SearchHandler) Web(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	h.metrics.IncWebSearches()

	resp, err := h.searchSvc.WebSearch(r.Context(), query)
	if err != nil {
		h.metrics.IncWebSearchErrors()
		switch err {
		case models.ErrInvalidInput:
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid search query")
		default:
			h.logger.Error("Web search failed", err, "query", query)
			utils.RespondWithError(w, http.StatusBadGateway, "Web search failed")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}
