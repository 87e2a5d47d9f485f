package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users/login", "", loginRequest{
		Email:    "admin@one.test",
		Password: "correct-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, tokenAdmin, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "admin@one.test", resp.User.Email)
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestLoginFailureUniformMessage(t *testing.T) {
	env := newTestEnv(t)

	cases := []loginRequest{
		{Email: "admin@one.test", Password: "wrong"},
		{Email: "nobody@example.com", Password: "correct-password"},
	}
	for _, req := range cases {
		rec := env.do(t, http.MethodPost, "/api/users/login", "", req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var errResp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Equal(t, "invalid credentials", errResp["error"])
	}
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users/login", "", loginRequest{Email: "admin@one.test"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users/logout", tokenAdmin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	t.Run("member", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/me", tokenEditor, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp meResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.User)
		assert.Equal(t, "editor@one.test", resp.User.Email)
		assert.Empty(t, resp.ViewingTenant)
	})

	t.Run("super admin with override", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/me", tokenSuper, nil, overrideCookie(tenantOneID))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp meResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tenantOneID, resp.ViewingTenant)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
