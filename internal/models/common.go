// Package models defines the domain types and errors shared across the backend.
package models

import (
	"time"
)

// ObjectTimes carries the creation and modification timestamps shared by
// persisted records. Embed it rather than declaring the fields inline.
type ObjectTimes struct {
	// CreatedAt is when the record was first stored.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time `json:"updatedAt"`
}

// TimeCreate stamps both timestamps with t.
func (o *ObjectTimes) TimeCreate(t time.Time) {
	o.CreatedAt = t
	o.UpdatedAt = t
}

// TimeUpdate stamps only the modification timestamp with t.
func (o *ObjectTimes) TimeUpdate(t time.Time) {
	o.UpdatedAt = t
}

// CreateNow stamps both timestamps with the current time.
func (o *ObjectTimes) CreateNow() {
	o.TimeCreate(time.Now())
}

// UpdateNow stamps the modification timestamp with the current time.
func (o *ObjectTimes) UpdateNow() {
	o.TimeUpdate(time.Now())
}
