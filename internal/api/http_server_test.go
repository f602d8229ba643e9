package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"venuebook/internal/audit"
	"venuebook/internal/config"
	"venuebook/internal/database"
	"venuebook/internal/repository"
	"venuebook/internal/resolver"
	"venuebook/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T, cfg config.APIConfig) *HTTPServer {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	active, logSrc := resolver.StoreSources(db)
	res := resolver.New(active, logSrc, resolver.ModeBestEffort, &logger)
	svc := service.NewReservationService(db, res, audit.New(db, &logger),
		nil, repository.NewMemorySnapshotCache(), nil, time.Minute, &logger)

	return NewHTTPServer(cfg, svc, &logger)
}

func doJSON(t *testing.T, srv *HTTPServer, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func createBody(start, end string) map[string]any {
	return map[string]any{
		"customer_name":    "Alice Reyes",
		"email":            "alice@example.com",
		"contact_number":   "09171234567",
		"event_type":       "Wedding",
		"event_start_date": start,
		"event_end_date":   end,
	}
}

func TestCreateReservationEndpoint(t *testing.T) {
	srv := setupServer(t, config.APIConfig{})

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/reservations", createBody("2026-10-10", "2026-10-12"), nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	reservation := resp["reservation"].(map[string]any)
	assert.Equal(t, "Pending", reservation["status"])
	assert.Equal(t, "Oct 10, 2026 to Oct 12, 2026", reservation["event_dates"])
	assert.NotEmpty(t, rec.Header().Get("x-request-id"))
}

func TestCreateReservationValidation(t *testing.T) {
	srv := setupServer(t, config.APIConfig{})

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/reservations",
		map[string]any{"email": "a@b.c"}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "customer_name")
}

func TestCreateReservationBadJSON(t *testing.T) {
	srv := setupServer(t, config.APIConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusEndpointConfirmAndConflict(t *testing.T) {
	srv := setupServer(t, config.APIConfig{})

	rec, first := doJSON(t, srv, http.MethodPost, "/api/v1/reservations", createBody("2026-10-10", "2026-10-12"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	firstID := int64(first["reservation"].(map[string]any)["id"].(float64))

	rec, second := doJSON(t, srv, http.MethodPost, "/api/v1/reservations", createBody("2026-10-12", "2026-10-14"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	secondID := int64(second["reservation"].(map[string]any)["id"].(float64))

	// Confirming the first declines the overlapping pending one.
	rec, resp := doJSON(t, srv, http.MethodPut,
		fmt.Sprintf("/api/v1/reservations/%d/status", firstID),
		map[string]any{"status": "Confirmed"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), resp["declinedCount"])
	assert.Equal(t, true, resp["auditLogged"])
	declined := resp["declinedBookings"].([]any)
	require.Len(t, declined, 1)
	assert.Equal(t, float64(secondID), declined[0].(map[string]any)["id"])

	// A new overlapping create is now rejected with the conflict details.
	rec, resp = doJSON(t, srv, http.MethodPost, "/api/v1/reservations", createBody("2026-10-11", "2026-10-11"), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "active", resp["conflict_source"])
	assert.Equal(t, "Oct 10, 2026 to Oct 12, 2026", resp["conflict_dates"])
	assert.Equal(t, "Alice Reyes", resp["conflict_customer"])
}

func TestStatusEndpointCancelUnknownID(t *testing.T) {
	srv := setupServer(t, config.APIConfig{})

	rec, _ := doJSON(t, srv, http.MethodPut, "/api/v1/reservations/999/status",
		map[string]any{"status": "Cancelled"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusEndpointRejectsPending(t *testing.T) {
	srv := setupServer(t, config.APIConfig{})

	rec, created := doJSON(t, srv, http.MethodPost, "/api/v1/reservations", createBody("2026-10-10", "2026-10-12"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int64(created["reservation"].(map[string]any)["id"].(float64))

	rec, _ = doJSON(t, srv, http.MethodPut,
		fmt.Sprintf("/api/v1/reservations/%d/status", id),
		map[string]any{"status": "Pending"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogsEndpoint(t *testing.T) {
	srv := setupServer(t, config.APIConfig{})

	rec, created := doJSON(t, srv, http.MethodPost, "/api/v1/reservations", createBody("2026-10-10", "2026-10-12"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int64(created["reservation"].(map[string]any)["id"].(float64))

	rec, _ = doJSON(t, srv, http.MethodPut,
		fmt.Sprintf("/api/v1/reservations/%d/status", id),
		map[string]any{"status": "Confirmed"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/v1/reservations/logs", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := resp["logs"].([]any)
	require.Len(t, logs, 1)
	entry := logs[0].(map[string]any)
	assert.Equal(t, "Wedding", entry["event_type"])
	assert.Equal(t, "Alice Reyes", entry["customer_name"])
	assert.NotEmpty(t, entry["reference"])
	assert.Equal(t, "Confirmed", entry["status"])
}

func TestListReservationsEndpoint(t *testing.T) {
	srv := setupServer(t, config.APIConfig{})

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/reservations", createBody("2026-10-10", "2026-10-12"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/v1/reservations", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp["reservations"].([]any), 1)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := setupServer(t, config.APIConfig{})

	rec, _ := doJSON(t, srv, http.MethodDelete, "/api/v1/reservations", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/v1/reservations/logs", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv := setupServer(t, config.APIConfig{})

	rec, resp := doJSON(t, srv, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp["status"])
}
