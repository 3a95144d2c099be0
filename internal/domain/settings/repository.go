package settings

import "context"

// Repository persists the singleton recovery settings row.
type Repository interface {
	// Get returns the current settings, or apperror.CodeNotFound when
	// the row was never seeded.
	Get(ctx context.Context) (RecoverySettings, error)

	// Save upserts the singleton row.
	Save(ctx context.Context, s RecoverySettings) error
}
