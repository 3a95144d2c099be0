// Package tx abstracts transaction management so domain services never
// depend on the PostgreSQL implementation directly.
package tx

import "context"

// Manager runs a function inside a database transaction.
// An error from fn rolls the transaction back; nil commits it.
// Nested calls reuse the transaction already carried by the context,
// so a posting run and the register writes it triggers share one
// commit.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
