// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/samber/lo"
	"norelock.dev/reelid/backend/internal/db/file/repositories"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

// HistoryHandler handles HTTP requests for a user's identification history.
type HistoryHandler struct {
	historyRepo repositories.HistoryRepository
	logger      *utils.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(historyRepo repositories.HistoryRepository, logger *utils.Logger) *HistoryHandler {
	return &HistoryHandler{
		historyRepo: historyRepo,
		logger:      logger.Named("history_handler"),
	}
}

// List handles requests to get the current user's history, newest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	// Parse paging parameters
	page, limit, ok := parsePaging(w, r)
	if !ok {
		return
	}
	skip := (page - 1) * limit

	// Get history entries
	entries, err := h.historyRepo.FindByUser(r.Context(), userID, skip, limit)
	if err != nil {
		h.logger.Error("Failed to get history", err, "userId", userID)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get history")
		return
	}

	// Get total count for paging
	total, err := h.historyRepo.CountByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to count history", err, "userId", userID)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get history")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.SearchHistoryResponse{
		Entries: lo.Map(entries, func(e *models.SearchHistoryEntry, _ int) models.SearchHistoryEntry {
			return *e
		}),
		TotalItems: int(total),
		HasMore:    skip+len(entries) < int(total),
	})
}

// DeleteEntry handles requests to delete a single history entry.
func (h *HistoryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request, id string) {
	// Get user ID from context
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	// Delete entry, scoped to the requesting user. Entries belonging to other
	// users are reported as not found.
	if err := h.historyRepo.Delete(r.Context(), id, userID); err != nil {
		switch err {
		case models.ErrHistoryEntryNotFound, models.ErrUnauthorizedAction:
			utils.RespondWithError(w, http.StatusNotFound, "History entry not found")
		default:
			h.logger.Error("Failed to delete history entry", err, "id", id, "userId", userID)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete history entry")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "History entry deleted successfully",
	})
}

// Clear handles requests to delete the current user's entire history.
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	// Clear history
	if err := h.historyRepo.Clear(r.Context(), userID); err != nil {
		h.logger.Error("Failed to clear history", err, "userId", userID)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "History cleared successfully",
	})
}

// parsePaging extracts the page and limit query parameters, writing a 400
// response and returning ok=false on invalid input.
func parsePaging(w http.ResponseWriter, r *http.Request) (page, limit int, ok bool) {
	page = 1 // Default page
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		var err error
		page, err = strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid page parameter")
			return 0, 0, false
		}
	}

	limit = 20 // Default limit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 50 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return 0, 0, false
		}
	}

	return page, limit, true
}
