// Package models defines the domain types and errors shared across the backend.
package models

import (
	"time"
)

// SearchHistoryEntry represents one identification attempt in a user's history.
type SearchHistoryEntry struct {
	// ID is the unique identifier for the history entry.
	ID string `json:"id"`

	// UserID is the ID of the user who made the request.
	UserID string `json:"userId"`

	// Kind is the kind of identification request.
	Kind RequestKind `json:"kind"`

	// Query is the free-text query, for text and actor kinds.
	Query string `json:"query,omitempty"`

	// UploadRef is the stored filename of the uploaded payload, for image and
	// video kinds.
	UploadRef string `json:"uploadRef,omitempty"`

	// Provider is the key of the provider that served the request.
	Provider string `json:"provider,omitempty"`

	// Source records where the response came from.
	Source Provenance `json:"source"`

	// ResultCount is the number of matches returned.
	ResultCount int `json:"resultCount"`

	// TopResultTitle is the title of the highest-ranked match, if any.
	TopResultTitle string `json:"topResultTitle,omitempty"`

	// Timestamp is when the request was made.
	Timestamp time.Time `json:"timestamp"`
}

// SearchHistoryResponse represents one page of a user's search history.
type SearchHistoryResponse struct {
	// Entries is the list of history entries, newest first.
	Entries []SearchHistoryEntry `json:"entries"`

	// TotalItems is the total number of entries for the user.
	TotalItems int `json:"totalItems"`

	// HasMore indicates whether there are more entries to retrieve.
	HasMore bool `json:"hasMore"`
}
