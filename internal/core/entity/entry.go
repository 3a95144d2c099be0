package entity

import (
	"context"
	"time"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/id"
)

// EntryType discriminates ledger entries.
type EntryType string

const (
	EntryTypeRefining    EntryType = "refining"
	EntryTypeRecycling   EntryType = "recycling"
	EntryTypeDross       EntryType = "dross"
	EntryTypeRMLPurchase EntryType = "rml_purchase"
	EntryTypeRMLReceived EntryType = "rml_received"
	EntryTypeSale        EntryType = "sale"
)

// KnownEntryType reports whether t is one of the ledger's entry types.
func KnownEntryType(t EntryType) bool {
	switch t {
	case EntryTypeRefining, EntryTypeRecycling, EntryTypeDross,
		EntryTypeRMLPurchase, EntryTypeRMLReceived, EntryTypeSale:
		return true
	}
	return false
}

// Entry is the common header for all ledger entries. The ledger is
// append-only: entries are never updated after posting, only hard-deleted
// through the guarded admin path.
type Entry struct {
	BaseDocument

	// EntryType discriminates the batch payload.
	EntryType EntryType `db:"entry_type" json:"entryType"`

	// Author. The ledger trusts the identity collaborator for both values.
	UserID   string `db:"user_id" json:"userId"`
	UserName string `db:"user_name" json:"userName"`

	// Timestamp is the event time (may be backdated, never in the future).
	// Distinct from CreatedAt, which records when the row was written.
	Timestamp time.Time `db:"timestamp" json:"timestamp"`

	// Posted indicates the entry's movements are recorded in the register.
	Posted bool `db:"posted" json:"posted"`

	// PostedVersion tracks posting iterations for movement reconciliation.
	PostedVersion int `db:"posted_version" json:"postedVersion"`

	// Comment is an optional user remark.
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewEntry creates a new Entry header of the given type.
func NewEntry(entryType EntryType, userID, userName string) Entry {
	return Entry{
		BaseDocument: NewBaseDocument(),
		EntryType:    entryType,
		UserID:       userID,
		UserName:     userName,
		Timestamp:    time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (e *Entry) Validate(ctx context.Context) error {
	if !KnownEntryType(e.EntryType) {
		return apperror.NewValidation("unknown entry type").
			WithDetail("field", "entryType").
			WithDetail("value", string(e.EntryType))
	}

	if e.UserID == "" {
		return apperror.NewValidation("author is required").
			WithDetail("field", "userId")
	}

	if e.Timestamp.IsZero() {
		return apperror.NewValidation("timestamp is required").
			WithDetail("field", "timestamp")
	}

	if e.Timestamp.After(time.Now().UTC()) {
		return apperror.NewValidation("timestamp must not be in the future").
			WithDetail("field", "timestamp")
	}

	return nil
}

// MarkPosted sets the posted flag and increments the posting version.
func (e *Entry) MarkPosted() {
	e.Posted = true
	e.PostedVersion++
	e.Touch()
}

// MarkUnposted clears the posted flag.
func (e *Entry) MarkUnposted() {
	e.Posted = false
	e.Touch()
}

// --- Postable interface default implementations ---
// Entry-specific types only need GetEntryType() and GenerateMovements().

// GetID returns the entry ID.
func (e *Entry) GetID() id.ID {
	return e.ID
}

// GetEntryType returns the entry type discriminator.
func (e *Entry) GetEntryType() EntryType {
	return e.EntryType
}

// GetPostedVersion returns the current posting version.
func (e *Entry) GetPostedVersion() int {
	return e.PostedVersion
}

// IsPosted returns true if the entry is currently posted.
func (e *Entry) IsPosted() bool {
	return e.Posted
}

// CanPost validates if the entry can be posted. Override in specific entry
// types when additional validation is needed.
func (e *Entry) CanPost(ctx context.Context) error {
	return e.Validate(ctx)
}

// Header returns the common entry header.
func (e *Entry) Header() *Entry {
	return e
}
