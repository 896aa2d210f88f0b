package server

import (
	"net/http"
	"testing"

	"azox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRequired_MissingToken(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/users/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRequired_GarbageToken(t *testing.T) {
	_, app, _ := newTestServer(t)

	req := jsonRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRequired_WrongSecret(t *testing.T) {
	srv, app, db := newTestServer(t)
	alice := seedServerUser(t, db, "alice", "hunter2secret", models.RoleUser)

	original := srv.config.JWTSecret
	srv.config.JWTSecret = "a-different-secret"
	header := bearerFor(t, srv, alice)
	srv.config.JWTSecret = original

	req := jsonRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", header)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRequired_DeactivatedAccount(t *testing.T) {
	srv, app, db := newTestServer(t)
	alice := seedServerUser(t, db, "alice", "hunter2secret", models.RoleUser)
	header := bearerFor(t, srv, alice)
	require.NoError(t, db.Model(alice).Update("is_active", false).Error)

	req := jsonRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", header)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRequired_HardDeletedAccount(t *testing.T) {
	srv, app, db := newTestServer(t)
	alice := seedServerUser(t, db, "alice", "hunter2secret", models.RoleUser)
	header := bearerFor(t, srv, alice)
	require.NoError(t, db.Unscoped().Delete(&models.User{}, alice.ID).Error)

	// The user row is gone but the token is still valid. That is a stale
	// session, not a server fault.
	req := jsonRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", header)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRequired_RegularUserForbidden(t *testing.T) {
	srv, app, db := newTestServer(t)
	alice := seedServerUser(t, db, "alice", "hunter2secret", models.RoleUser)

	req := jsonRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", bearerFor(t, srv, alice))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOwnerRequired_AdminForbidden(t *testing.T) {
	srv, app, db := newTestServer(t)
	admin := seedServerUser(t, db, "admin1", "hunter2secret", models.RoleAdmin)

	req := jsonRequest(http.MethodPost, "/api/admin/users/purge-inactive", nil)
	req.Header.Set("Authorization", bearerFor(t, srv, admin))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMethodNotAllowedPreserved(t *testing.T) {
	_, app, _ := newTestServer(t)

	// GET on a POST-only route keeps Fiber's 405, it is not wrapped in the
	// action envelope.
	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/auth/register", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestBusinessRefusalIsEnvelope(t *testing.T) {
	srv, app, db := newTestServer(t)
	admin := seedServerUser(t, db, "admin1", "hunter2secret", models.RoleAdmin)
	peer := seedServerUser(t, db, "admin2", "hunter2secret", models.RoleAdmin)

	// An admin acting on a peer is refused by policy, not by transport:
	// the status stays 200 and the envelope carries success=false.
	req := jsonRequest(http.MethodPost, "/api/admin/users/"+itoa(peer.ID)+"/ban", nil)
	req.Header.Set("Authorization", bearerFor(t, srv, admin))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.ActionResponse
	decodeBody(t, resp, &body)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Message)
}
