// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"net/http"

	"github.com/samber/lo"
	"norelock.dev/reelid/backend/internal/db/file/repositories"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

// MovieHandler handles HTTP requests for a user's identified movie library.
type MovieHandler struct {
	movieRepo repositories.MovieRepository
	logger    *utils.Logger
}

// NewMovieHandler creates a new movie handler.
func NewMovieHandler(movieRepo repositories.MovieRepository, logger *utils.Logger) *MovieHandler {
	return &MovieHandler{
		movieRepo: movieRepo,
		logger:    logger.Named("movie_handler"),
	}
}

// List handles requests to get the current user's movie library, newest first.
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
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

	// Get library records
	movies, err := h.movieRepo.FindByUser(r.Context(), userID, skip, limit)
	if err != nil {
		h.logger.Error("Failed to get movies", err, "userId", userID)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get movies")
		return
	}

	// Get total count for paging
	total, err := h.movieRepo.CountByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to count movies", err, "userId", userID)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get movies")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.MovieListResponse{
		Movies: lo.Map(movies, func(m *models.Movie, _ int) models.Movie {
			return *m
		}),
		TotalItems: int(total),
		HasMore:    skip+len(movies) < int(total),
	})
}

// Get handles requests to get a single library record.
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	// Get user ID from context
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	// Get movie
	movie, err := h.movieRepo.FindByID(r.Context(), id)
	if err != nil {
		switch err {
		case models.ErrMovieNotFound:
			utils.RespondWithError(w, http.StatusNotFound, "Movie not found")
		default:
			h.logger.Error("Failed to get movie", err, "id", id)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get movie")
		}
		return
	}

	// Records belonging to other users are reported as not found
	if movie.UserID != userID {
		utils.RespondWithError(w, http.StatusNotFound, "Movie not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, movie)
}

// Delete handles requests to delete a library record.
func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	// Get user ID from context
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	// Delete movie, scoped to the requesting user. Records belonging to other
	// users are reported as not found.
	if err := h.movieRepo.Delete(r.Context(), id, userID); err != nil {
		switch err {
		case models.ErrMovieNotFound, models.ErrUnauthorizedAction:
			utils.RespondWithError(w, http.StatusNotFound, "Movie not found")
		default:
			h.logger.Error("Failed to delete movie", err, "id", id, "userId", userID)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete movie")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Movie deleted successfully",
	})
}
