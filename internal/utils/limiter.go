// Package utils provides shared helpers for logging, validation and HTTP responses.
package utils

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter tracks request timestamps per key over a sliding window.
// Identification and web search calls hit paid upstream APIs, so each
// route group gets its own limiter with its own budget.
type RateLimiter struct {
	// requests holds the timestamps recorded for each key
	requests map[string][]time.Time

	// window is the sliding interval requests are counted over
	window time.Duration

	// limit caps how many requests fit inside one window
	limit int

	// mu guards the requests map
	mu sync.RWMutex
}

// NewRateLimiter creates a limiter allowing at most limit requests per window.
func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
		limit:    limit,
	}
}

// aliveSince keeps only the timestamps newer than cutoff.
func aliveSince(stamps []time.Time, cutoff time.Time) []time.Time {
	var alive []time.Time
	for _, ts := range stamps {
		if ts.After(cutoff) {
			alive = append(alive, ts)
		}
	}
	return alive
}

// Allow records a request for key if it still fits in the window.
// A denied request is not recorded and does not extend the window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	alive := aliveSince(rl.requests[key], now.Add(-rl.window))
	if len(alive) >= rl.limit {
		rl.requests[key] = alive
		return false
	}

	rl.requests[key] = append(alive, now)
	return true
}

// GetRemainingRequests reports how many requests key has left in the current window.
func (rl *RateLimiter) GetRemainingRequests(key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	cutoff := time.Now().Add(-rl.window)
	used := 0
	for _, ts := range rl.requests[key] {
		if ts.After(cutoff) {
			used++
		}
	}

	return max(rl.limit-used, 0)
}

// GetResetTime reports when the oldest in-window request for key expires.
// A key with no live requests resets immediately.
func (rl *RateLimiter) GetResetTime(key string) time.Time {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	var oldest time.Time
	for _, ts := range rl.requests[key] {
		if !ts.After(cutoff) {
			continue
		}
		if oldest.IsZero() || ts.Before(oldest) {
			oldest = ts
		}
	}

	if oldest.IsZero() {
		return now
	}
	return oldest.Add(rl.window)
}

// CleanupLoop drops expired entries every cleanupInterval until ctx is done.
// Run it in its own goroutine.
func (rl *RateLimiter) CleanupLoop(ctx context.Context, cleanupInterval time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup evicts keys whose every timestamp has left the window.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for key, stamps := range rl.requests {
		alive := aliveSince(stamps, cutoff)
		if len(alive) == 0 {
			delete(rl.requests, key)
			continue
		}
		rl.requests[key] = alive
	}
}

// RateLimitMiddleware wraps a handler with limiter, keyed by keyFunc.
// The X-RateLimit headers reflect the state before the current request
// is counted, so the first response on a fresh key shows the full budget.
func RateLimitMiddleware(limiter *RateLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			reset := limiter.GetResetTime(key)

			header := w.Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(limiter.GetRemainingRequests(key)))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if !limiter.Allow(key) {
				header.Set("Retry-After", strconv.Itoa(int(time.Until(reset).Seconds())))
				RespondWithError(w, http.StatusTooManyRequests, ErrRateLimited.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultKeyFunc keys rate limits by client IP.
func DefaultKeyFunc(r *http.Request) string {
	return GetRequestIP(r)
}

// UserKeyFunc keys rate limits by the authenticated user, or by IP for
// anonymous requests.
func UserKeyFunc(r *http.Request) string {
	if userID, ok := r.Context().Value("userID").(string); ok && userID != "" {
		return fmt.Sprintf("user:%s", userID)
	}
	return fmt.Sprintf("ip:%s", GetRequestIP(r))
}

// LimiterConfig bundles one limiter per rate limited route group.
type LimiterConfig struct {
	// General API requests
	API *RateLimiter

	// Login attempts
	Login *RateLimiter

	// Registration
	Register *RateLimiter

	// Identification requests (each one costs an external AI call)
	Identify *RateLimiter

	// Web searches
	WebSearch *RateLimiter
}

// NewDefaultLimiterConfig builds the stock rate limit policies:
// 100 API calls and 15 identifications per minute, 30 web searches per
// minute, 10 login attempts per 15 minutes and 5 registrations per day.
func NewDefaultLimiterConfig() *LimiterConfig {
	return &LimiterConfig{
		API:       NewRateLimiter(time.Minute, 100),
		Login:     NewRateLimiter(time.Minute*15, 10),
		Register:  NewRateLimiter(time.Hour*24, 5),
		Identify:  NewRateLimiter(time.Minute, 15),
		WebSearch: NewRateLimiter(time.Minute, 30),
	}
}

// StartCleanupRoutines launches the eviction loops for every limiter and
// returns the function that stops them.
func (lc *LimiterConfig) StartCleanupRoutines(ctx context.Context) func() {
	cleanupCtx, cancel := context.WithCancel(ctx)

	go lc.API.CleanupLoop(cleanupCtx, time.Minute*5)
	go lc.Login.CleanupLoop(cleanupCtx, time.Minute*5)
	go lc.Register.CleanupLoop(cleanupCtx, time.Hour)
	go lc.Identify.CleanupLoop(cleanupCtx, time.Minute*5)
	go lc.WebSearch.CleanupLoop(cleanupCtx, time.Minute*5)

	return cancel
}
