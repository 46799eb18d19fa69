// Package middleware contains the HTTP middleware for the API server.
package middleware

import (
	"net/http"
	"time"

	"norelock.dev/reelid/backend/internal/utils"
)

// LoggerMiddleware writes one structured log line per handled request.
type LoggerMiddleware struct {
	logger *utils.Logger
}

// NewLoggerMiddleware creates a new logger middleware.
func NewLoggerMiddleware(logger *utils.Logger) *LoggerMiddleware {
	return &LoggerMiddleware{
		logger: logger.Named("http"),
	}
}

// Logger logs method, path, status, duration and client details for every
// request once the handler chain has finished.
func (m *LoggerMiddleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration", time.Since(start).String(),
			"ip", utils.GetRequestIP(r),
			"userAgent", r.UserAgent(),
		)
	})
}

// responseWriter remembers the status code written by the handler.
// Handlers that never call WriteHeader implicitly send 200.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
