// Package security provides the mutation guard for privileged ledger
// operations and context plumbing for the acting principal.
package security

import "context"

type contextKey string

const principalKey contextKey = "security.principal"

// Principal is the acting account as established by the identity layer.
type Principal struct {
	UserID  string
	Name    string
	IsAdmin bool
}

// WithPrincipal attaches the acting principal to the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the acting principal, if present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
