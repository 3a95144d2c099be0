package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/security"
	"leadtrack/internal/core/types"
)

type memoryRepo struct {
	row *RecoverySettings
}

func (r *memoryRepo) Get(_ context.Context) (RecoverySettings, error) {
	if r.row == nil {
		return RecoverySettings{}, apperror.NewNotFound("recovery settings", "singleton")
	}
	return *r.row, nil
}

func (r *memoryRepo) Save(_ context.Context, s RecoverySettings) error {
	r.row = &s
	return nil
}

func adminCtx() context.Context {
	return security.WithPrincipal(context.Background(), security.Principal{
		UserID: "u1", Name: "TT", IsAdmin: true,
	})
}

func TestService_GetFallsBackToDefaults(t *testing.T) {
	svc := NewService(&memoryRepo{}, security.NewGuard("TT"))

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "60.5", got.PP.String())
	assert.Equal(t, "58", got.MCSMF.String())
	assert.Equal(t, "50", got.HR.String())
}

func TestService_UpdateRequiresAdmin(t *testing.T) {
	svc := NewService(&memoryRepo{}, security.NewGuard("TT"))
	ctx := security.WithPrincipal(context.Background(), security.Principal{
		UserID: "u2", Name: "Factory",
	})

	_, err := svc.Update(ctx, Defaults())
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestService_UpdatePersists(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, security.NewGuard("TT"))

	next := Defaults()
	next.PP = types.MustPercent("62")

	saved, err := svc.Update(adminCtx(), next)
	require.NoError(t, err)
	assert.Equal(t, "62", saved.PP.String())
	assert.Equal(t, "TT", saved.UpdatedBy)

	got, err := svc.Get(adminCtx())
	require.NoError(t, err)
	assert.Equal(t, "62", got.PP.String())
}

func TestService_UpdateRejectsOutOfRange(t *testing.T) {
	svc := NewService(&memoryRepo{}, security.NewGuard("TT"))

	bad := Defaults()
	bad.HR = types.MustPercent("101")

	_, err := svc.Update(adminCtx(), bad)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
