// Package id generates UUIDv7 identifiers for ledger entries, batches
// and register lines. UUIDv7 is time-ordered, so entry IDs sort by
// creation time without a separate index.
package id

import (
	"github.com/google/uuid"
)

// ID identifies an entry, batch, movement line or account.
type ID = uuid.UUID

// New generates a UUIDv7. The timestamp in the first 48 bits keeps
// B-tree locality for append-heavy tables like the movement register.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to V4.
		return uuid.New()
	}
	return id
}

// Parse converts a string to an ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// Nil returns the zero-value ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether id is the zero value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
