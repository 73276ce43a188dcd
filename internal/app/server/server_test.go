package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"perfeval/internal/domain/auth"
	"perfeval/internal/platform/config"
)

const testSecret = "router-test-secret"

func testConfig() config.Config {
	return config.Config{
		Environment:             "test",
		JWTSecret:               testSecret,
		CORSAllowedOrigins:      []string{"http://localhost:5173"},
		MaxBodyBytes:            1 << 20,
		RateLimitPerMinute:      1000,
		DefaultSelfWeight:       0.3,
		DefaultSupervisorWeight: 0.7,
		MetricsEnabled:          true,
	}
}

func testRouter(t *testing.T, ping func(context.Context) error) http.Handler {
	t.Helper()
	cfg := testConfig()
	svcs, err := NewServices(nil, cfg)
	require.NoError(t, err)
	return NewRouter(cfg, svcs, ping)
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, "11111111-1111-1111-1111-111111111111", role+"@example.com", role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthAndReadiness(t *testing.T) {
	router := testRouter(t, func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready := testRouter(t, func(context.Context) error { return nil })
	rec = httptest.NewRecorder()
	ready.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresAuthentication(t *testing.T) {
	router := testRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/periods", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", gjson.Get(rec.Body.String(), "error.code").String())
}

func TestRolePermissionsAreEnforced(t *testing.T) {
	router := testRouter(t, nil)
	cases := []struct {
		method, path, role string
	}{
		{http.MethodPost, "/api/v1/periods", auth.RoleEmployee},
		{http.MethodPost, "/api/v1/periods/p1/dimensions", auth.RoleSupervisor},
		{http.MethodGet, "/api/v1/periods/p1/assignments", auth.RoleSupervisor},
		{http.MethodPost, "/api/v1/periods/p1/results/compute", auth.RoleSupervisor},
		{http.MethodGet, "/api/v1/periods/p1/analytics/team", auth.RoleEmployee},
		{http.MethodPost, "/api/v1/plans/x/approve", auth.RoleEmployee},
		{http.MethodGet, "/api/v1/audit", auth.RoleSupervisor},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, tc.role))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s as %s", tc.method, tc.path, tc.role)
	}
}

func TestOrganisationDashboardsNeedPrivilegedRole(t *testing.T) {
	router := testRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/periods/p1/analytics/overview", nil)
	req.Header.Set("Authorization", bearer(t, auth.RoleSupervisor))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestQueryValidationRunsBeforeStorage(t *testing.T) {
	router := testRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/periods?status=archived", nil)
	req.Header.Set("Authorization", bearer(t, auth.RoleHR))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status", gjson.Get(rec.Body.String(), "error.details.fields.0.field").String())
}

func TestCORSPreflight(t *testing.T) {
	router := testRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/periods", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t, nil)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "perfeval_http_requests_total")
}
