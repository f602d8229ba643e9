package api

import (
	"net/http"
	"testing"

	"venuebook/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authConfig(permissions []string) config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "test-key", Extra: "test-extra", Name: "tester", Permissions: permissions},
			},
		},
	}
}

func validHeaders() map[string]string {
	return map[string]string{
		"x-api-key":   "test-key",
		"x-api-extra": "test-extra",
	}
}

func TestAuthMissingHeaders(t *testing.T) {
	srv := setupServer(t, authConfig(nil))

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/v1/reservations", nil, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, resp["error"], "missing api key")
}

func TestAuthInvalidKey(t *testing.T) {
	srv := setupServer(t, authConfig(nil))

	rec, _ := doJSON(t, srv, http.MethodGet, "/api/v1/reservations", nil, map[string]string{
		"x-api-key":   "wrong",
		"x-api-extra": "test-extra",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthInvalidExtra(t *testing.T) {
	srv := setupServer(t, authConfig(nil))

	rec, _ := doJSON(t, srv, http.MethodGet, "/api/v1/reservations", nil, map[string]string{
		"x-api-key":   "test-key",
		"x-api-extra": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAllowAllWhenNoPermissions(t *testing.T) {
	srv := setupServer(t, authConfig(nil))

	rec, _ := doJSON(t, srv, http.MethodGet, "/api/v1/reservations", nil, validHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthPermissionDenied(t *testing.T) {
	srv := setupServer(t, authConfig([]string{"read:reservations"}))

	// Reading is allowed.
	rec, _ := doJSON(t, srv, http.MethodGet, "/api/v1/reservations", nil, validHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)

	// Creating needs write:reservations.
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/v1/reservations",
		createBody("2026-10-10", "2026-10-12"), validHeaders())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Status changes need write:status.
	rec, _ = doJSON(t, srv, http.MethodPut, "/api/v1/reservations/1/status",
		map[string]any{"status": "Confirmed"}, validHeaders())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthExportNeedsWritePermission(t *testing.T) {
	srv := setupServer(t, authConfig([]string{"read:logs"}))

	// Reading the confirmation log is allowed.
	rec, _ := doJSON(t, srv, http.MethodGet, "/api/v1/reservations/logs", nil, validHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)

	// Scheduling an export is not.
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/v1/reservations/logs/export", nil, validHeaders())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthHealthzBypassesAuth(t *testing.T) {
	srv := setupServer(t, authConfig(nil))

	rec, _ := doJSON(t, srv, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := authConfig(nil)
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 1}
	srv := setupServer(t, cfg)

	rec, _ := doJSON(t, srv, http.MethodGet, "/api/v1/reservations", nil, validHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/v1/reservations", nil, validHeaders())
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, resp["error"], "rate limit")
}

func TestRequiredPermissionHTTP(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/reservations", permReadReservations},
		{http.MethodPost, "/api/v1/reservations", permWriteReservations},
		{http.MethodPut, "/api/v1/reservations/5/status", permWriteStatus},
		{http.MethodGet, "/api/v1/reservations/logs", permReadLogs},
		{http.MethodPost, "/api/v1/reservations/logs/export", permWriteExports},
		{http.MethodGet, "/healthz", ""},
	}

	for _, tt := range tests {
		req, err := http.NewRequest(tt.method, tt.path, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.want, requiredPermissionHTTP(req), "%s %s", tt.method, tt.path)
	}
}
