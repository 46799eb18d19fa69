package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"norelock.dev/reelid/backend/internal/utils"
)

// IDHandlerFunc is an HTTP handler that receives the resource ID from the
// route as an argument.
type IDHandlerFunc func(w http.ResponseWriter, r *http.Request, id string)

// WithID wraps an IDHandlerFunc into a plain http.HandlerFunc, extracting the
// "id" URL parameter and rejecting requests where it is missing.
func WithID(handler IDHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "ID is required")
			return
		}
		handler(w, r, id)
	}
}
