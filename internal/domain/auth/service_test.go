package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/security"
)

type memUserRepo struct {
	users map[id.ID]*User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[id.ID]*User)}
}

func (r *memUserRepo) Create(_ context.Context, u *User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, userID id.ID) (*User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	return u, nil
}

func (r *memUserRepo) GetByName(_ context.Context, name string) (*User, error) {
	for _, u := range r.users {
		if u.Name == name {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", name)
}

func (r *memUserRepo) Update(_ context.Context, u *User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) List(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *memUserRepo) Delete(_ context.Context, userID id.ID) error {
	delete(r.users, userID)
	return nil
}

func (r *memUserRepo) Exists(_ context.Context, name string) (bool, error) {
	_, err := r.GetByName(context.Background(), name)
	return err == nil, nil
}

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func seedUser(t *testing.T, repo *memUserRepo, name, password string, admin bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := NewUser(name, string(hash))
	u.IsAdmin = admin
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func newAuthService(repo *memUserRepo) *Service {
	return NewService(repo, passTx{},
		NewJWTService(DefaultJWTConfig("test-secret")),
		security.NewGuard("TT"),
		DefaultServiceConfig())
}

func TestLogin_TokenRoundTrip(t *testing.T) {
	repo := newMemUserRepo()
	seedUser(t, repo, "TT", "admin-password", true)
	svc := newAuthService(repo)

	pair, user, err := svc.Login(context.Background(), Credentials{Name: "TT", Password: "admin-password"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, user.IsAdmin)

	uc, err := NewJWTService(DefaultJWTConfig("test-secret")).ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "TT", uc.Name)
	assert.True(t, uc.IsAdmin)
	assert.Equal(t, user.ID.String(), uc.UserID)
}

func TestLogin_WrongPasswordLocksAfterRetries(t *testing.T) {
	repo := newMemUserRepo()
	u := seedUser(t, repo, "Factory", "floor-password", false)
	svc := newAuthService(repo)

	for i := 0; i < DefaultServiceConfig().MaxLoginAttempts; i++ {
		_, _, err := svc.Login(context.Background(), Credentials{Name: "Factory", Password: "wrong"})
		require.Error(t, err)
	}

	assert.True(t, u.IsLocked())

	// Even the right password is rejected while locked.
	_, _, err := svc.Login(context.Background(), Credentials{Name: "Factory", Password: "floor-password"})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestCreateUser_GuardedAndUnique(t *testing.T) {
	repo := newMemUserRepo()
	seedUser(t, repo, "TT", "admin-password", true)
	svc := newAuthService(repo)

	userCtx := security.WithPrincipal(context.Background(), security.Principal{UserID: "u", Name: "Factory"})
	_, err := svc.CreateUser(userCtx, CreateUserRequest{Name: "NewGuy", Password: "longenough"})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	adminCtx := security.WithPrincipal(context.Background(), security.Principal{UserID: "a", Name: "TT", IsAdmin: true})
	created, err := svc.CreateUser(adminCtx, CreateUserRequest{Name: "NewGuy", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "NewGuy", created.Name)

	_, err = svc.CreateUser(adminCtx, CreateUserRequest{Name: "NewGuy", Password: "longenough"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestDeleteUser_AdminAccountProtected(t *testing.T) {
	repo := newMemUserRepo()
	admin := seedUser(t, repo, "TT", "admin-password", true)
	worker := seedUser(t, repo, "Factory", "floor-password", false)
	svc := newAuthService(repo)

	adminCtx := security.WithPrincipal(context.Background(), security.Principal{UserID: "a", Name: "TT", IsAdmin: true})

	err := svc.DeleteUser(adminCtx, admin.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	require.NoError(t, svc.DeleteUser(adminCtx, worker.ID))
	_, err = repo.GetByID(context.Background(), worker.ID)
	require.Error(t, err)
}

func TestValidateToken_RejectsTamperedSecret(t *testing.T) {
	repo := newMemUserRepo()
	seedUser(t, repo, "TT", "admin-password", true)
	svc := newAuthService(repo)

	pair, _, err := svc.Login(context.Background(), Credentials{Name: "TT", Password: "admin-password"})
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("other-secret")).ValidateToken(pair.AccessToken)
	require.Error(t, err)

	_, err = NewJWTService(DefaultJWTConfig("test-secret")).ValidateToken(pair.AccessToken + "x")
	require.Error(t, err)

	// Expired tokens fail validation.
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	expiredSvc := NewJWTService(cfg)
	u, err := repo.GetByName(context.Background(), "TT")
	require.NoError(t, err)
	expired, _, err := expiredSvc.GenerateAccessToken(u)
	require.NoError(t, err)
	_, err = NewJWTService(DefaultJWTConfig("test-secret")).ValidateToken(expired)
	require.Error(t, err)
}
