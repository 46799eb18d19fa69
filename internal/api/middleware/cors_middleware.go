// Package middleware contains the HTTP middleware for the API server.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"norelock.dev/reelid/backend/internal/utils"
)

// CORSConfig controls which cross-origin callers may reach the API. The
// browser frontend is served from a different origin in development, so
// the defaults are permissive.
type CORSConfig struct {
	// AllowedOrigins lists origins cross-origin requests may come from.
	// A "*" entry admits every origin.
	AllowedOrigins []string

	// AllowedMethods lists the methods advertised to preflight requests.
	AllowedMethods []string

	// AllowedHeaders lists the non-simple request headers clients may send.
	AllowedHeaders []string

	// ExposedHeaders lists response headers scripts may read.
	ExposedHeaders []string

	// AllowCredentials permits cookies and Authorization headers on
	// cross-origin requests.
	AllowCredentials bool

	// MaxAge is how long, in seconds, browsers may cache a preflight
	// answer. Zero disables caching.
	MaxAge int
}

// DefaultCORSConfig admits every origin with credentials and a one day
// preflight cache.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders: []string{
			"Origin", "Accept", "Content-Type", "Authorization",
		},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// CORSMiddleware answers preflights and stamps CORS headers on responses.
type CORSMiddleware struct {
	config CORSConfig
	logger *utils.Logger
}

// NewCORSMiddleware creates a new CORS middleware.
func NewCORSMiddleware(config CORSConfig, logger *utils.Logger) *CORSMiddleware {
	return &CORSMiddleware{
		config: config,
		logger: logger.Named("cors_middleware"),
	}
}

// CORS wraps next, short-circuiting OPTIONS preflights with 204.
func (m *CORSMiddleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := m.isOriginAllowed(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		if r.Method == http.MethodOptions {
			m.preflight(w)
			return
		}

		m.commonHeaders(w)
		next.ServeHTTP(w, r)
	})
}

// isOriginAllowed resolves the Allow-Origin value for origin, or "" when
// the origin is not admitted. With credentials enabled a literal "*" is
// not a legal header value, so the caller's own origin is echoed instead.
func (m *CORSMiddleware) isOriginAllowed(origin string) string {
	if origin == "" {
		return ""
	}

	for _, allowed := range m.config.AllowedOrigins {
		switch {
		case allowed == "*":
			if m.config.AllowCredentials {
				return origin
			}
			return "*"
		case allowed == origin:
			return origin
		case strings.HasSuffix(allowed, "*"):
			if strings.HasPrefix(origin, strings.TrimSuffix(allowed, "*")) {
				return origin
			}
		}
	}

	return ""
}

// preflight answers an OPTIONS request with the advertised methods,
// headers and cache lifetime.
func (m *CORSMiddleware) preflight(w http.ResponseWriter) {
	m.commonHeaders(w)

	header := w.Header()
	if len(m.config.AllowedMethods) > 0 {
		header.Set("Access-Control-Allow-Methods", strings.Join(m.config.AllowedMethods, ", "))
	}
	if len(m.config.AllowedHeaders) > 0 {
		header.Set("Access-Control-Allow-Headers", strings.Join(m.config.AllowedHeaders, ", "))
	}
	if m.config.MaxAge > 0 {
		header.Set("Access-Control-Max-Age", strconv.Itoa(m.config.MaxAge))
	}

	w.WriteHeader(http.StatusNoContent)
}

// commonHeaders stamps the headers shared by preflight and plain responses.
func (m *CORSMiddleware) commonHeaders(w http.ResponseWriter) {
	if m.config.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if len(m.config.ExposedHeaders) > 0 {
		w.Header().Set("Access-Control-Expose-Headers", strings.Join(m.config.ExposedHeaders, ", "))
	}
}
