// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/services/user"
	"norelock.dev/reelid/backend/internal/utils"
)

// UserHandler serves the authenticated user's profile endpoints.
type UserHandler struct {
	userManager  *user.Manager
	statsService *user.StatsService
	logger       *utils.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userManager *user.Manager, statsService *user.StatsService, logger *utils.Logger) *UserHandler {
	return &UserHandler{
		userManager:  userManager,
		statsService: statsService,
		logger:       logger.Named("user_handler"),
	}
}

// ProfileResponse represents a user's profile together with activity stats.
type ProfileResponse struct {
	User  models.PersonalUser     `json:"user"`
	Stats models.UserStatsSummary `json:"stats"`
}

// GetMe returns the current user's profile and activity stats.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	account, err := h.userManager.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Failed to get user", err, "id", userID)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ProfileResponse{
		User:  account.ToPersonalUser(),
		Stats: h.statsService.GetUserStats(r.Context(), account),
	})
}

// UpdateMe applies a username or profile change to the current user.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	var req models.UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	account, err := h.userManager.UpdateUser(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, models.ErrUsernameAlreadyExists):
			utils.RespondWithError(w, http.StatusConflict, "Username already in use")
		default:
			h.logger.Error("Failed to update user", err, "id", userID)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, account.ToPersonalUser())
}

// ChangePassword rotates the current user's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	var req models.UserPasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	if err := h.userManager.ChangePassword(r.Context(), userID, req); err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, models.ErrInvalidCredentials):
			utils.RespondWithError(w, http.StatusUnauthorized, "Current password is incorrect")
		default:
			h.logger.Error("Failed to change password", err, "id", userID)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to change password")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password changed successfully",
	})
}
