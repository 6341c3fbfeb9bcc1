package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"galleria/internal/config"
	"galleria/internal/middlewares"
	"galleria/internal/models"
	"galleria/internal/services"
	"galleria/internal/utils"
)

type stubDB struct{ healthy bool }

func (s *stubDB) Health() map[string]string {
	if s.healthy {
		return map[string]string{"message": "It's healthy"}
	}
	return map[string]string{"message": "db down"}
}

func (s *stubDB) Client() *mongo.Client            { return nil }
func (s *stubDB) Database() *mongo.Database        { return nil }
func (s *stubDB) Close(ctx context.Context) error { return nil }

type stubAuth struct{}

func (stubAuth) Register(ctx context.Context, creds models.Credentials) (*models.Admin, error) {
	return nil, &services.Error{Kind: services.ErrConflict, Message: "admin already exists"}
}

func (stubAuth) Login(ctx context.Context, creds models.Credentials) (*models.Admin, string, error) {
	return nil, "", &services.Error{Kind: services.ErrInvalidCredentials, Message: "invalid email or password"}
}

func (stubAuth) Logout(ctx context.Context, token string) error { return nil }

func (stubAuth) Verify(ctx context.Context, token string) (*utils.Claims, error) {
	if token == "good" {
		return &utils.Claims{ID: "admin", IsAdmin: true}, nil
	}
	return nil, &services.Error{Kind: services.ErrUnauthorized, Message: "invalid or expired token"}
}

func newTestServer(healthy bool) *Server {
	return &Server{
		cfg: &config.Config{
			AllowedOrigins: []string{"http://localhost:5173"},
			Upload:         config.UploadConfig{MaxFileBytes: 1 << 20, MaxFiles: 3},
		},
		db:          &stubDB{healthy: healthy},
		authService: stubAuth{},
	}
}

func serve(t *testing.T, h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(""))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHelloWorld(t *testing.T) {
	h := newTestServer(true).RegisterRoutes()

	rr := serve(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Hello World"}`, rr.Body.String())
}

func TestHealth(t *testing.T) {
	rr := serve(t, newTestServer(true).RegisterRoutes(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(t, newTestServer(false).RegisterRoutes(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(true).RegisterRoutes()
	serve(t, h, http.MethodGet, "/", "")

	rr := serve(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestMutatingRoutesRequireBearerToken(t *testing.T) {
	h := newTestServer(true).RegisterRoutes()

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodPost, "/api/collections/create"},
		{http.MethodPut, "/api/collections/update/64b7f0c2a1b2c3d4e5f60718"},
		{http.MethodDelete, "/api/collections/delete/64b7f0c2a1b2c3d4e5f60718"},
		{http.MethodPatch, "/api/collections/status/64b7f0c2a1b2c3d4e5f60718"},
		{http.MethodPost, "/api/gallery/create"},
		{http.MethodPut, "/api/gallery/update/64b7f0c2a1b2c3d4e5f60718"},
		{http.MethodDelete, "/api/gallery/delete/64b7f0c2a1b2c3d4e5f60718"},
		{http.MethodPatch, "/api/gallery/status/64b7f0c2a1b2c3d4e5f60718"},
		{http.MethodPost, "/api/photos/create"},
		{http.MethodPut, "/api/photos/update/64b7f0c2a1b2c3d4e5f60718"},
		{http.MethodDelete, "/api/photos/delete/64b7f0c2a1b2c3d4e5f60718"},
		{http.MethodPatch, "/api/photos/status/64b7f0c2a1b2c3d4e5f60718"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, serve(t, h, rt.method, rt.path, "").Code)
			assert.Equal(t, http.StatusForbidden, serve(t, h, rt.method, rt.path, "bad").Code)
		})
	}
}

func TestLogoutWithValidToken(t *testing.T) {
	rr := serve(t, newTestServer(true).RegisterRoutes(), http.MethodPost, "/api/auth/logout", "good")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}

func TestSearchRoutesResolveBeforeID(t *testing.T) {
	h := newTestServer(true).RegisterRoutes()

	// An invalid status is rejected by the search handler, not parsed as an id.
	for _, path := range []string{
		"/api/collections/search?status=maybe",
		"/api/gallery/search?status=maybe",
		"/api/photos/search?status=maybe",
	} {
		rr := serve(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
		assert.Contains(t, rr.Body.String(), "status", path)
	}
}

func TestPhotoPaginationValidation(t *testing.T) {
	h := newTestServer(true).RegisterRoutes()

	for _, q := range []string{"page=0", "page=abc", "limit=-1"} {
		rr := serve(t, h, http.MethodGet, "/api/photos?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestRateLimitKeysAdminsApartFromTheirIP(t *testing.T) {
	s := newTestServer(true)
	s.limiter = middlewares.NewRateLimiter(config.RateLimitConfig{RPS: 0.001, Burst: 1})
	h := s.RegisterRoutes()

	// same RemoteAddr throughout; the admin bucket and the IP bucket are separate
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodPost, "/api/auth/logout", "good").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/api/photos?page=0", "").Code)

	assert.Equal(t, http.StatusTooManyRequests, serve(t, h, http.MethodPost, "/api/auth/logout", "good").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, h, http.MethodGet, "/api/photos?page=0", "").Code)
}

func TestPreflight(t *testing.T) {
	h := newTestServer(true).RegisterRoutes()

	req := httptest.NewRequest(http.MethodOptions, "/api/collections/create", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}
