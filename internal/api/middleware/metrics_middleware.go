// Package middleware contains the HTTP middleware for the API server.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"norelock.dev/reelid/backend/internal/services/system"
)

// MetricsMiddleware records Prometheus metrics for HTTP requests.
type MetricsMiddleware struct {
	metrics *system.MetricsService
}

// NewMetricsMiddleware creates a new metrics middleware.
func NewMetricsMiddleware(metrics *system.MetricsService) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
	}
}

// Metrics is a middleware that records request counts, durations, and the
// number of requests in flight.
func (m *MetricsMiddleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.metrics.IncHTTPRequestsInProgress(r.Method)
		defer m.metrics.DecHTTPRequestsInProgress(r.Method)

		// Capture the status code
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Process the request
		next.ServeHTTP(rw, r)

		// Use the chi route pattern as the path label so IDs in URLs do not
		// explode label cardinality
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		m.metrics.ObserveHTTPRequest(r.Method, path, rw.statusCode, time.Since(start))
	})
}
