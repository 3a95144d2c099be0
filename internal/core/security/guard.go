package security

import (
	"context"

	"leadtrack/internal/core/apperror"
)

// Capability names a privileged operation class.
type Capability string

const (
	CapEditSettings Capability = "EDIT_SETTINGS"
	CapDeleteEntry  Capability = "DELETE_ENTRY"
	CapManageUsers  Capability = "MANAGE_USERS"
	CapClearAllData Capability = "CLEAR_ALL_DATA"
)

// Guard authorizes privileged mutations. The plant runs on a single fixed
// admin account: every capability resolves to "is the caller that account".
// Appending and reading ledger entries is open to any authenticated user
// and never passes through the guard.
type Guard struct {
	adminName string
}

// NewGuard creates a guard recognizing adminName as the privileged account.
func NewGuard(adminName string) *Guard {
	return &Guard{adminName: adminName}
}

// Require returns nil when the context principal may perform cap.
// The error deliberately carries no capability or principal detail.
func (g *Guard) Require(ctx context.Context, cap Capability) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return apperror.NewUnauthorized("authentication required")
	}
	if !g.isAdmin(p) {
		return apperror.NewForbidden("not permitted")
	}
	return nil
}

// IsAdmin reports whether the context principal is the admin account.
func (g *Guard) IsAdmin(ctx context.Context) bool {
	p, ok := PrincipalFromContext(ctx)
	return ok && g.isAdmin(p)
}

func (g *Guard) isAdmin(p Principal) bool {
	return p.Name == g.adminName || p.IsAdmin
}
