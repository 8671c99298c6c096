package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipebook/recipebook-server/internal/auth"
	"github.com/recipebook/recipebook-server/internal/media/images"
	"github.com/recipebook/recipebook-server/internal/metrics"
	"github.com/recipebook/recipebook-server/internal/search"
	"github.com/recipebook/recipebook-server/internal/service"
	"github.com/recipebook/recipebook-server/internal/store/sqlite"
	"github.com/recipebook/recipebook-server/internal/validation"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer wires a full server against a temporary SQLite store and an
// in-memory search index.
func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWithOptions(t, Options{})
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()
	dir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	imageStorage, err := images.NewStorage(dir, "media")
	require.NoError(t, err)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenServiceFromKey(key, 0)
	require.NoError(t, err)

	m := metrics.New()
	v := validation.New()
	hasher := auth.NewPasswordHasher(auth.TestHashParams)

	searchSvc := service.NewSearchService(st, index, nil)
	identity := service.NewIdentityService(st, hasher, v, nil)
	credentials := service.NewCredentialService(st, identity, tokens, m, nil)
	services := &Services{
		Identity:    identity,
		Credentials: credentials,
		Tags:        service.NewTagService(st, searchSvc, v, nil),
		Ingredients: service.NewIngredientService(st, searchSvc, v, nil),
		Recipes:     service.NewRecipeService(st, imageStorage, searchSvc, m, v, nil),
		Admin:       service.NewAdminService(st, identity, credentials, nil),
		Search:      searchSvc,
	}

	if opts.Metrics == nil {
		opts.Metrics = m
	}
	server := NewServer(st, services, opts, nil)

	return &testServer{
		Server: server,
		api:    humatest.Wrap(t, server.API()),
	}
}

// errorBody mirrors APIError on the wire.
type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), "body: %s", resp.Body.String())
	return v
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// signup registers a user through the API and returns a fresh token.
func (ts *testServer) signup(t *testing.T, email, username string) string {
	t.Helper()
	resp := ts.api.Post("/api/users", map[string]any{
		"email":    email,
		"username": username,
		"password": "pw1234",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return ts.login(t, email, "pw1234")
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := ts.api.Post("/api/users/token", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[TokenResponse](t, resp).Token
}

// superuser creates a superuser directly through the identity service.
func (ts *testServer) superuser(t *testing.T, email, username string) string {
	t.Helper()
	_, err := ts.services.Identity.RegisterSuperuser(context.Background(), service.RegisterRequest{
		Email:    email,
		Username: username,
		Password: "pw1234",
	})
	require.NoError(t, err)
	return ts.login(t, email, "pw1234")
}

func (ts *testServer) createTag(t *testing.T, token, name string) NamedResponse {
	t.Helper()
	resp := ts.api.Post("/api/tags", map[string]any{"name": name}, bearer(token))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[NamedResponse](t, resp)
}

func (ts *testServer) createIngredient(t *testing.T, token, name string) NamedResponse {
	t.Helper()
	resp := ts.api.Post("/api/ingredients", map[string]any{"name": name}, bearer(token))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[NamedResponse](t, resp)
}

func (ts *testServer) createRecipe(t *testing.T, token string, body map[string]any) RecipeDetailResponse {
	t.Helper()
	resp := ts.api.Post("/api/recipes", body, bearer(token))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[RecipeDetailResponse](t, resp)
}

func TestNewServer_PublishesOpenAPI(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/openapi.json")
	require.Equal(t, http.StatusOK, resp.Code)

	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &doc))
	for _, path := range []string{
		"/api/users",
		"/api/users/token",
		"/api/users/me",
		"/api/tags",
		"/api/tags/{id}",
		"/api/ingredients",
		"/api/ingredients/{id}",
		"/api/recipes",
		"/api/recipes/{id}",
		"/api/recipes/{id}/image",
		"/api/admin/users",
		"/api/admin/users/{id}",
		"/api/search",
		"/health",
	} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "healthy", health.Components["search"].Status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.api.Get("/health")
	ts.signup(t, "a@x.com", "a")

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, "recipebook_http_requests_total")
	assert.Contains(t, body, `path="/health"`)
	assert.Contains(t, body, `recipebook_token_operations_total{operation="issue",result="ok"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/nothing-here")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{CORSOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/recipes", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost))
}
