// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"norelock.dev/reelid/backend/internal/auth"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/services/system"
	"norelock.dev/reelid/backend/internal/services/user"
	"norelock.dev/reelid/backend/internal/utils"
)

// AuthHandler serves registration, login, logout, token refresh and the
// current-user endpoint.
type AuthHandler struct {
	userManager *user.Manager
	metrics     *system.MetricsService
	logger      *utils.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(userManager *user.Manager, metrics *system.MetricsService, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{
		userManager: userManager,
		metrics:     metrics,
		logger:      logger.Named("auth_handler"),
	}
}

// AuthResponse is the body returned by successful register and login calls.
type AuthResponse struct {
	User  models.PersonalUser `json:"user"`
	Token string              `json:"token"`
}

// RefreshResponse is the body returned by a successful token refresh.
type RefreshResponse struct {
	Token string `json:"token"`
}

// Register creates an account and opens its first session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.UserRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode register request", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		h.logger.Debug("Invalid register request", "error", err)
		utils.RespondWithValidationError(w, err)
		return
	}

	account, token, err := h.userManager.Register(r.Context(), req, utils.GetRequestIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrFeatureDisabled):
			utils.RespondWithError(w, http.StatusForbidden, "Registration is disabled")
		case errors.Is(err, models.ErrEmailAlreadyExists):
			utils.RespondWithError(w, http.StatusConflict, "Email already in use")
		case errors.Is(err, models.ErrUsernameAlreadyExists):
			utils.RespondWithError(w, http.StatusConflict, "Username already in use")
		default:
			h.logger.Error("Failed to register user", err, "email", req.Email)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	h.metrics.IncUserRegistrations()

	utils.RespondWithJSON(w, http.StatusCreated, AuthResponse{
		User:  account.ToPersonalUser(),
		Token: token,
	})
}

// Login checks credentials and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.UserLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode login request", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		h.logger.Debug("Invalid login request", "error", err)
		utils.RespondWithValidationError(w, err)
		return
	}

	account, token, err := h.userManager.Login(r.Context(), req, utils.GetRequestIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, models.ErrAccountDisabled):
			utils.RespondWithError(w, http.StatusForbidden, "Account is disabled")
		default:
			h.logger.Error("Failed to login user", err, "email", req.Email)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	h.metrics.IncUserLogins()

	utils.RespondWithJSON(w, http.StatusOK, AuthResponse{
		User:  account.ToPersonalUser(),
		Token: token,
	})
}

// Logout revokes the caller's sessions.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	if err := h.userManager.Logout(r.Context(), userID); err != nil {
		h.logger.Error("Failed to logout user", err, "userId", userID)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to logout")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Refresh exchanges a bearer token for a fresh one. The presented token
// must still have a live session; a logged-out token cannot be refreshed.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := utils.ExtractBearerToken(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	newToken, err := h.userManager.RefreshToken(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
		case errors.Is(err, auth.ErrExpiredToken):
			utils.RespondWithError(w, http.StatusUnauthorized, "Token has expired")
		case errors.Is(err, models.ErrSessionExpired):
			utils.RespondWithError(w, http.StatusUnauthorized, "Session expired, please log in again")
		default:
			h.logger.Error("Failed to refresh token", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to refresh token")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, RefreshResponse{
		Token: newToken,
	})
}

// Me returns the authenticated user's own profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
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
		h.logger.Error("Failed to get user", err, "userId", userID)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get user information")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, account.ToPersonalUser())
}
