// Package middleware contains the HTTP middleware for the API server.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"norelock.dev/reelid/backend/internal/auth"
	"norelock.dev/reelid/backend/internal/db/file"
	"norelock.dev/reelid/backend/internal/utils"
)

// AuthMiddleware guards protected routes. A request passes only with a
// valid bearer token backed by a live server-side session.
type AuthMiddleware struct {
	authProvider auth.Provider
	sessionMgr   *file.SessionManager
	logger       *utils.Logger
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(authProvider auth.Provider, sessionMgr *file.SessionManager, logger *utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authProvider: authProvider,
		sessionMgr:   sessionMgr,
		logger:       logger.Named("auth_middleware"),
	}
}

// RequireAuth validates the bearer token and its session, then stores the
// caller's identity in the request context under "userID", "username" and
// "roles" for the handlers downstream.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := utils.ExtractBearerToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := m.authProvider.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken):
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			case errors.Is(err, auth.ErrExpiredToken):
				utils.RespondWithError(w, http.StatusUnauthorized, "Token has expired")
			default:
				m.logger.Error("Failed to validate token", err)
				utils.RespondWithError(w, http.StatusInternalServerError, "Failed to validate token")
			}
			return
		}

		// A token outliving its session is rejected, logout revokes it.
		session, err := m.sessionMgr.GetSession(r.Context(), token)
		if err != nil {
			m.logger.Error("Failed to verify session", err, "userId", claims.UserID)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to verify session")
			return
		}
		if session == nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Session expired or invalid")
			return
		}

		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)
		ctx = context.WithValue(ctx, "roles", claims.Roles)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits only tokens carrying the given role. It is stacked
// after RequireAuth, which has already vetted token and session.
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := utils.ExtractBearerToken(r)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			if !m.authProvider.HasRole(r.Context(), token, role) {
				utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
