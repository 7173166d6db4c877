package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"authflow/internal/domain"
	"authflow/internal/repository/sqlite"
)

func newTestService(t *testing.T) UserService {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return NewUserService(repo, bcrypt.MinCost)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := map[string]domain.Credentials{
		"missing username": {Password: "pw", Name: "N"},
		"missing password": {Username: "u", Name: "N"},
		"missing name":     {Username: "u", Password: "pw"},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, creds)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, domain.Credentials{Username: "alice", Password: "password123", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Register(ctx, domain.Credentials{Username: "alice", Password: "x", Name: "Other"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	got, err := svc.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "bob", "password123")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateNameAndPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.Credentials{Username: "alice", Password: "password123", Name: "Alice"})
	require.NoError(t, err)

	user, err := svc.UpdateName(ctx, "alice", "Updated Name")
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", user.Name)

	_, err = svc.UpdateName(ctx, "alice", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.UpdatePassword(ctx, "alice", "newpassword123"))
	_, err = svc.Authenticate(ctx, "alice", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "alice", "newpassword123")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.UpdatePassword(ctx, "bob", "x"), ErrUserNotFound)
}

func TestDeleteChecksPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.Credentials{Username: "alice", Password: "password123", Name: "Alice"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "alice", "wrong"), ErrInvalidCredentials)
	require.NoError(t, svc.Delete(ctx, "alice", "password123"))

	_, err = svc.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "alice", "password123"), ErrUserNotFound)
}
