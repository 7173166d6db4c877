package userapi_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authflow/internal/client"
	"authflow/internal/domain"
	"authflow/internal/userapi/userapitest"
)

func newSession(t *testing.T, baseURL string) *client.Client {
	t.Helper()
	c, err := client.New(baseURL)
	require.NoError(t, err)
	return c
}

func TestRegister(t *testing.T) {
	_, baseURL := userapitest.NewServer(t)
	c := newSession(t, baseURL)
	ctx := context.Background()

	resp, err := c.Register(ctx, domain.Credentials{Username: "alice", Password: "password123", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, string(resp.Body), `"name":"Alice"`)
	assert.NotContains(t, strings.ToLower(string(resp.Body)), "hash")

	resp, err = c.Register(ctx, domain.Credentials{Username: "alice", Password: "password123", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = c.Register(ctx, domain.Credentials{Username: "bob", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginStatuses(t *testing.T) {
	_, baseURL := userapitest.NewServer(t)
	c := newSession(t, baseURL)
	ctx := context.Background()

	_, err := c.Register(ctx, domain.Credentials{Username: "alice", Password: "password123", Name: "Alice"})
	require.NoError(t, err)

	resp, err := c.Login(ctx, "nobody", "password123")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = c.Login(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = c.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidateRequiresSession(t *testing.T) {
	_, baseURL := userapitest.NewServer(t)
	c := newSession(t, baseURL)
	ctx := context.Background()

	resp, err := c.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, err = c.Register(ctx, domain.Credentials{Username: "alice", Password: "password123", Name: "Alice"})
	require.NoError(t, err)
	_, err = c.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	resp, err = c.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	name, ok := resp.ValidatedName()
	require.True(t, ok)
	assert.Equal(t, "Alice", name)

	resp, err = c.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateNameVisibleInSameSession(t *testing.T) {
	_, baseURL := userapitest.NewServer(t)
	c := newSession(t, baseURL)
	ctx := context.Background()

	_, err := c.Register(ctx, domain.Credentials{Username: "alice", Password: "password123", Name: "Alice"})
	require.NoError(t, err)
	_, err = c.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	resp, err := c.UpdateName(ctx, "alice", "Updated Name")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.Validate(ctx)
	require.NoError(t, err)
	name, ok := resp.ValidatedName()
	require.True(t, ok)
	assert.Equal(t, "Updated Name", name)
}

func TestCannotModifyAnotherUser(t *testing.T) {
	_, baseURL := userapitest.NewServer(t)
	alice := newSession(t, baseURL)
	ctx := context.Background()

	_, err := alice.Register(ctx, domain.Credentials{Username: "alice", Password: "password123", Name: "Alice"})
	require.NoError(t, err)
	_, err = alice.Register(ctx, domain.Credentials{Username: "bob", Password: "password123", Name: "Bob"})
	require.NoError(t, err)
	_, err = alice.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	resp, err := alice.UpdateName(ctx, "bob", "Mallory")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = alice.UpdatePassword(ctx, "bob", "stolen")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = alice.Delete(ctx, "bob", "password123")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	anon := newSession(t, baseURL)
	resp, err = anon.UpdateName(ctx, "bob", "Mallory")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeleteRevokesSessions(t *testing.T) {
	_, baseURL := userapitest.NewServer(t)
	first := newSession(t, baseURL)
	second := newSession(t, baseURL)
	ctx := context.Background()

	_, err := first.Register(ctx, domain.Credentials{Username: "alice", Password: "password123", Name: "Alice"})
	require.NoError(t, err)
	_, err = first.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	_, err = second.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	resp, err := first.Delete(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = first.Delete(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = second.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = first.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
