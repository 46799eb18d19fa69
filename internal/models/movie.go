// Package models defines the domain types and errors shared across the backend.
package models

// Movie represents an identified movie or series persisted to a user's library.
type Movie struct {
	// ID is the unique identifier for the library record.
	ID string `json:"id"`

	// UserID is the ID of the user who identified the content.
	UserID string `json:"userId"`

	// RequestKind is the kind of request that produced the match.
	RequestKind RequestKind `json:"requestKind"`

	// Source records where the match came from.
	Source Provenance `json:"source"`

	// Match is the identification result being persisted.
	Match ContentMatch `json:"match"`

	// ObjectTimes contains timestamps for this record.
	ObjectTimes
}

// MovieListResponse represents one page of a user's movie library.
type MovieListResponse struct {
	// Movies is the list of library records, newest first.
	Movies []Movie `json:"movies"`

	// TotalItems is the total number of records for the user.
	TotalItems int `json:"totalItems"`

	// HasMore indicates whether there are more records to retrieve.
	HasMore bool `json:"hasMore"`
}
