package handlers

import (
	"net/http"

	"norelock.dev/reelid/backend/internal/utils"
)

// GetUserIDFromContext extracts the authenticated user's ID from the request
// context. It writes a 401 response and returns "" when no valid ID is
// present.
func GetUserIDFromContext(w http.ResponseWriter, r *http.Request) string {
	userID := r.Context().Value("userID")
	if userID == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "User ID not found")
		return ""
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid User ID format")
		return ""
	}
	return id
}
