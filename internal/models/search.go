// Package models defines the domain types and errors shared across the backend.
package models

// WebSearchResult is one hit from the external web search engine.
type WebSearchResult struct {
	// Title is the page title.
	Title string `json:"title"`

	// Link is the page URL.
	Link string `json:"link"`

	// Snippet is the short excerpt shown with the result.
	Snippet string `json:"snippet"`

	// DisplayLink is the rendered hostname of the result.
	DisplayLink string `json:"displayLink,omitempty"`
}

// WebSearchResponse is the payload returned by the web search endpoint.
type WebSearchResponse struct {
	// Enabled reports whether web search is available. When false, Results
	// is always empty.
	Enabled bool `json:"enabled"`

	// Query is the sanitized query that was executed.
	Query string `json:"query"`

	// Results is the ordered list of search hits.
	Results []WebSearchResult `json:"results"`

	// TotalResults is the engine's estimated total for the query.
	TotalResults string `json:"totalResults,omitempty"`
}
