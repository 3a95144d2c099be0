package auth

import (
	"context"

	"leadtrack/internal/core/id"
)

// UserRepository persists plant accounts.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, userID id.ID) error
	Exists(ctx context.Context, name string) (bool, error)
}
