package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/users", map[string]any{
		"email":      "Cook@Example.COM",
		"username":   "  cook ",
		"password":   "pw1234",
		"first_name": "Ada",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	profile := decode[ProfileResponse](t, resp)
	assert.Equal(t, "Cook@example.com", profile.Email)
	assert.Equal(t, "cook", profile.Username)
	assert.Equal(t, "Ada", profile.FirstName)
	assert.NotContains(t, resp.Body.String(), "password")
}

func TestRegister_ValidationErrors(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name      string
		body      map[string]any
		wantField string
	}{
		{
			name:      "missing email",
			body:      map[string]any{"username": "a", "password": "pw1234"},
			wantField: "email",
		},
		{
			name:      "invalid email",
			body:      map[string]any{"email": "not-an-email", "username": "a", "password": "pw1234"},
			wantField: "email",
		},
		{
			name:      "short password",
			body:      map[string]any{"email": "a@x.com", "username": "a", "password": "pw"},
			wantField: "password",
		},
		{
			name:      "phone too long",
			body:      map[string]any{"email": "a@x.com", "username": "a", "password": "pw1234", "phone_number": "123456789"},
			wantField: "phone_number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/users", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

			body := decode[errorBody](t, resp)
			assert.Equal(t, "VALIDATION", body.Code)
			assert.Contains(t, body.Details, tt.wantField)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	ts.signup(t, "a@x.com", "a")

	resp := ts.api.Post("/api/users", map[string]any{
		"email":    "A@X.COM",
		"username": "other",
		"password": "pw1234",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "CONFLICT", decode[errorBody](t, resp).Code)
}

func TestIssueToken_InvalidCredentials(t *testing.T) {
	ts := setupTestServer(t)
	ts.signup(t, "a@x.com", "a")

	for name, body := range map[string]map[string]any{
		"wrong password": {"email": "a@x.com", "password": "nope12"},
		"unknown email":  {"email": "b@x.com", "password": "pw1234"},
	} {
		t.Run(name, func(t *testing.T) {
			resp := ts.api.Post("/api/users/token", body)
			require.Equal(t, http.StatusBadRequest, resp.Code)

			errBody := decode[errorBody](t, resp)
			assert.Equal(t, "INVALID_CREDENTIALS", errBody.Code)
			assert.Equal(t, "unable to authenticate with provided credentials", errBody.Message)
		})
	}
}

func TestIssueToken_ReissueInvalidatesPreviousToken(t *testing.T) {
	ts := setupTestServer(t)
	first := ts.signup(t, "a@x.com", "a")
	second := ts.login(t, "a@x.com", "pw1234")

	assert.Equal(t, http.StatusUnauthorized, ts.api.Get("/api/users/me", bearer(first)).Code)
	assert.Equal(t, http.StatusOK, ts.api.Get("/api/users/me", bearer(second)).Code)
}

func TestProfile_RequiresToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/users/me")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "authentication credentials were not provided", decode[errorBody](t, resp).Message)

	resp = ts.api.Get("/api/users/me", bearer("garbage"))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "invalid token", decode[errorBody](t, resp).Message)
}

func TestProfile_AcceptsTokenScheme(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signup(t, "a@x.com", "a")

	resp := ts.api.Get("/api/users/me", "Authorization: Token "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "a@x.com", decode[ProfileResponse](t, resp).Email)
}

func TestProfile_PostNotAllowed(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signup(t, "a@x.com", "a")

	resp := ts.api.Post("/api/users/me", map[string]any{}, bearer(token))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

func TestUpdateProfile_Patch(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signup(t, "a@x.com", "a")

	resp := ts.api.Patch("/api/users/me", map[string]any{
		"first_name": "Grace",
		"password":   "newpass",
	}, bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	profile := decode[ProfileResponse](t, resp)
	assert.Equal(t, "Grace", profile.FirstName)
	assert.Equal(t, "a", profile.Username)

	// The new password works; the old one no longer does.
	ts.login(t, "a@x.com", "newpass")
	resp = ts.api.Post("/api/users/token", map[string]any{"email": "a@x.com", "password": "pw1234"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateProfile_Put(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signup(t, "a@x.com", "a")

	resp := ts.api.Put("/api/users/me", map[string]any{
		"username": "renamed",
		"email":    "new@x.com",
	}, bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "new@x.com", decode[ProfileResponse](t, resp).Email)
}

func TestUpdateProfile_Invalid(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signup(t, "a@x.com", "a")

	resp := ts.api.Patch("/api/users/me", map[string]any{"email": "broken"}, bearer(token))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decode[errorBody](t, resp).Details, "email")
}

func TestLogout_RevokesToken(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signup(t, "a@x.com", "a")

	resp := ts.api.Post("/api/users/logout", bearer(token))
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	assert.Equal(t, http.StatusUnauthorized, ts.api.Get("/api/users/me", bearer(token)).Code)
}
