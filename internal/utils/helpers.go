// Package utils provides shared helpers for logging, validation and HTTP responses.
package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

var (
	slugDropPattern   = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpacePattern  = regexp.MustCompile(`[\s]+`)
	slugHyphenPattern = regexp.MustCompile(`[-]+`)
)

// ParseInt parses s as a base 10 integer, falling back to defaultValue
// for empty or malformed input.
func ParseInt(s string, defaultValue int64) int64 {
	if s == "" {
		return defaultValue
	}

	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return defaultValue
	}
	return val
}

// TruncateString shortens s to maxLen bytes, ending in "..." when it had
// to cut.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatRuntime formats a runtime in minutes into a label like "2h 28m".
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return ""
	}

	hours, remaining := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", remaining)
	case remaining == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, remaining)
	}
}

// GetRequestIP extracts the client address, preferring the first entry
// of X-Forwarded-For when a proxy added one, and strips any port.
func GetRequestIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}

	if comma := strings.Index(ip, ","); comma >= 0 {
		ip = strings.TrimSpace(ip[:comma])
	}
	if colon := strings.Index(ip, ":"); colon >= 0 {
		ip = ip[:colon]
	}

	return ip
}

// SlugifyString turns a title into a URL safe slug: lowercase, spaces to
// hyphens, everything else dropped.
func SlugifyString(s string) string {
	s = strings.ToLower(s)
	s = slugDropPattern.ReplaceAllString(s, "")
	s = slugSpacePattern.ReplaceAllString(s, "-")
	s = slugHyphenPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SplitAndTrim splits s around sep and trims whitespace from every part.
func SplitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
