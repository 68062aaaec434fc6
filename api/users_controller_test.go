package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/goliatone/go-storefront/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateMe(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com", "alice", "s3cret1")
	s.register(t, "b@x.com", "bob", "s3cret1")
	pair := s.login(t, "alice", "s3cret1")

	resp := s.do(t, http.MethodPatch, "/api/v1/users/me", pair.AccessToken, map[string]string{
		"full_name":    "Alice Liddell",
		"phone_number": "+1 650 253 0000",
		"bio":          "Down the rabbit hole",
		"password":     "hijacked",
	})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	assert.Equal(t, "Alice Liddell", resp.body["full_name"])
	assert.Equal(t, "+16502530000", resp.body["phone_number"])
	assert.Equal(t, "Down the rabbit hole", resp.body["bio"])

	_, err := s.auther.Login(context.Background(), "alice", "hijacked")
	assert.True(t, auth.IsUnauthorized(err))
	s.login(t, "alice", "s3cret1")

	resp = s.do(t, http.MethodPatch, "/api/v1/users/me", pair.AccessToken, map[string]string{
		"email": "B@X.com",
	})
	assert.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "DUPLICATE_EMAIL", resp.body["code"])

	resp = s.do(t, http.MethodPut, "/api/v1/users/me", pair.AccessToken, map[string]string{
		"username": "bob",
	})
	assert.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "DUPLICATE_USERNAME", resp.body["code"])

	resp = s.do(t, http.MethodPatch, "/api/v1/users/me", pair.AccessToken, map[string]string{
		"email":    "liddell@x.com",
		"username": "liddell",
	})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	assert.Equal(t, "liddell@x.com", resp.body["email"])
	assert.Equal(t, "liddell", resp.body["username"])

	resp = s.do(t, http.MethodPatch, "/api/v1/users/me", pair.AccessToken, map[string]string{
		"email": "not-an-email",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.status)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com", "alice", "s3cret1")
	pair := s.login(t, "alice", "s3cret1")
	path := "/api/v1/users/me/password"

	resp := s.do(t, http.MethodPut, path, "", map[string]string{
		"current_password": "s3cret1",
		"new_password":     "n3wsecret",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.do(t, http.MethodPut, path, pair.AccessToken, map[string]string{
		"current_password": "guess",
		"new_password":     "hijacked",
	})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "INCORRECT_PASSWORD", resp.body["code"])
	assert.Equal(t, "incorrect current password", resp.body["detail"])
	s.login(t, "alice", "s3cret1")

	resp = s.do(t, http.MethodPut, path, pair.AccessToken, map[string]string{
		"current_password": "s3cret1",
		"new_password":     "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.status)

	resp = s.do(t, http.MethodPut, path, pair.AccessToken, map[string]string{
		"current_password": "s3cret1",
		"new_password":     "n3wsecret",
	})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))

	s.login(t, "alice", "n3wsecret")
	_, err := s.auther.Login(context.Background(), "alice", "s3cret1")
	assert.True(t, auth.IsUnauthorized(err))
}

func TestAdminUserRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "a@x.com", "alice", "s3cret1")
	aliceToken := s.login(t, "alice", "s3cret1").AccessToken
	admin := s.adminToken(t)

	path := fmt.Sprintf("/api/v1/users/%d", alice.ID)

	resp := s.do(t, http.MethodGet, path, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "alice", resp.body["username"])

	resp = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.do(t, http.MethodPost, path+"/deactivate", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "FORBIDDEN", resp.body["code"])

	resp = s.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "alice", resp.body["username"])

	resp = s.do(t, http.MethodGet, "/api/v1/users/9999", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = s.do(t, http.MethodGet, "/api/v1/users/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = s.do(t, http.MethodPost, path+"/deactivate", admin, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, false, resp.body["is_active"])

	resp = s.do(t, http.MethodGet, "/api/v1/users/me", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = s.do(t, http.MethodPost, path+"/activate", admin, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, true, resp.body["is_active"])

	resp = s.do(t, http.MethodGet, "/api/v1/users/me", aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)
}
