// Package utils provides shared helpers for logging, validation and HTTP responses.
package utils

import (
	"net/url"
	"regexp"
	"strings"
)

// Patterns applied to user supplied text before it is stored or handed
// to the identification providers.
var (
	scriptBlockPattern = regexp.MustCompile(`(?i)<script[\s\S]*?>[\s\S]*?</script>`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
	querySymbolPattern = regexp.MustCompile(`[^\w\s]`)
)

// SanitizeString strips script blocks and HTML tags from s and collapses
// whitespace runs into single spaces.
func SanitizeString(s string) string {
	s = scriptBlockPattern.ReplaceAllString(s, "")
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SanitizeEmail normalizes an email address to trimmed lowercase.
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeURL returns the normalized form of rawURL, or "" when it does
// not parse or uses a scheme other than http or https.
func SanitizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return parsed.String()
}

// SanitizeSearchQuery prepares free text for the web search API: symbols
// become spaces, whitespace runs collapse, word characters survive.
func SanitizeSearchQuery(query string) string {
	query = querySymbolPattern.ReplaceAllString(strings.TrimSpace(query), " ")
	query = whitespaceRun.ReplaceAllString(query, " ")
	return strings.TrimSpace(query)
}
