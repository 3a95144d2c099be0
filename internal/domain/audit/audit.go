// Package audit defines the audit trail contract. Administrative and
// posting actions are recorded so that any ledger mutation can be
// traced back to an account and a request.
package audit

import (
	"context"

	"leadtrack/internal/core/id"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionDelete   Action = "delete"
	ActionPost     Action = "post"
	ActionRepost   Action = "repost"
	ActionClearAll Action = "clear_all"
	ActionSettings Action = "settings_update"
)

// Recorder persists audit events. The storage implementation decides
// how payloads are encoded and compressed.
type Recorder interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// Nop discards every event. Used in tests and tools that run without
// an audit store.
type Nop struct{}

func (Nop) LogChange(context.Context, string, id.ID, Action, map[string]any) error {
	return nil
}

var _ Recorder = Nop{}
