// Package middleware contains the HTTP middleware for the API server.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"norelock.dev/reelid/backend/internal/utils"
)

// RecoveryMiddleware turns handler panics into 500 responses instead of
// letting them kill the connection.
type RecoveryMiddleware struct {
	logger *utils.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(logger *utils.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		logger: logger.Named("recovery"),
	}
}

// Recovery catches panics from the wrapped handler, logs the stack and
// answers with a generic 500.
func (m *RecoveryMiddleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			m.logger.Error("Panic recovered", fmt.Errorf("panic: %v", recovered),
				"stack", string(debug.Stack()),
				"method", r.Method,
				"path", r.URL.Path,
				"ip", utils.GetRequestIP(r),
			)

			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
