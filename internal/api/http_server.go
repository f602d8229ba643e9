package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"venuebook/internal/config"
	"venuebook/internal/metrics"
	"venuebook/internal/models"
	"venuebook/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the reservation API.
type HTTPServer struct {
	cfg    config.APIConfig
	svc    *service.ReservationService
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc *service.ReservationService, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, svc: svc, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/api/v1/reservations/", srv.handleReservationSubpath)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := loggingMiddleware(logger, srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the full middleware chain, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		metrics.IncHTTP("create_reservation")
		s.createReservation(w, r)
	case http.MethodGet:
		metrics.IncHTTP("list_reservations")
		s.listReservations(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleReservationSubpath routes /api/v1/reservations/{id}/status,
// /api/v1/reservations/{id}, /api/v1/reservations/logs and
// /api/v1/reservations/logs/export.
func (s *HTTPServer) handleReservationSubpath(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/reservations/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	switch {
	case rest == "logs":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		metrics.IncHTTP("list_logs")
		s.listLogs(w, r)
	case rest == "logs/export":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		metrics.IncHTTP("export_logs")
		s.exportLogs(w, r)
	case strings.HasSuffix(rest, "/status"):
		if r.Method != http.MethodPut {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		metrics.IncHTTP("update_status")
		s.updateStatus(w, r, strings.TrimSuffix(rest, "/status"))
	default:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		metrics.IncHTTP("get_reservation")
		s.getReservation(w, r, rest)
	}
}

func (s *HTTPServer) createReservation(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := s.svc.CreateReservation(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "reservation created",
		"reservation": reservationResponse(created),
	})
}

func (s *HTTPServer) listReservations(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListReservations(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(list))
	for _, res := range list {
		out = append(out, reservationResponse(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": out})
}

func (s *HTTPServer) getReservation(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	res, err := s.svc.GetReservation(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservation": reservationResponse(res)})
}

func (s *HTTPServer) updateStatus(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.svc.SetStatus(r.Context(), id, body.Status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	declined := make([]map[string]any, 0, len(result.Declined))
	for _, d := range result.Declined {
		declined = append(declined, map[string]any{
			"id":       d.ID,
			"customer": d.Customer,
		})
	}

	resp := map[string]any{
		"message":          fmt.Sprintf("reservation %s", strings.ToLower(result.Status)),
		"status":           result.Status,
		"declinedCount":    result.DeclinedCount,
		"declinedBookings": declined,
	}
	if result.Status == models.StatusConfirmed {
		resp["auditLogged"] = result.AuditLogged
	}
	if len(result.Degraded) > 0 {
		resp["degraded"] = result.Degraded
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) listLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.ListConfirmationLog(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"log_id":           e.LogID,
			"reference":        e.Reference,
			"event_type":       e.EventType,
			"customer_name":    e.CustomerName,
			"email":            e.Email,
			"contact_number":   e.ContactNumber,
			"special_request":  e.SpecialRequest,
			"event_start_date": e.StartDate.String(),
			"event_end_date":   e.EndDate.String(),
			"event_dates":      e.Interval().DisplayRange(),
			"confirmed_at":     e.ConfirmedAt.Format("2006-01-02 15:04:05"),
			"status":           e.Status,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": out})
}

func (s *HTTPServer) exportLogs(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.EnqueueExport(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "export scheduled"})
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var (
		verr *service.ValidationError
		cerr *service.ConflictError
		nerr *service.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":             cerr.Error(),
			"conflict_source":   cerr.Conflict.Source,
			"conflict_dates":    cerr.Conflict.Interval.DisplayRange(),
			"conflict_customer": cerr.Conflict.CustomerName,
		})
	case errors.As(err, &nerr):
		writeError(w, http.StatusNotFound, nerr.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func reservationResponse(r *models.Reservation) map[string]any {
	return map[string]any{
		"id":               r.ID,
		"customer_name":    r.CustomerName,
		"email":            r.Email,
		"contact_number":   r.ContactNumber,
		"event_type":       r.EventType,
		"event_name":       r.EventName,
		"special_request":  r.SpecialRequest,
		"event_start_date": r.StartDate.String(),
		"event_end_date":   r.EndDate.String(),
		"event_dates":      r.Interval().DisplayRange(),
		"status":           r.Status,
	}
}

func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, fmt.Errorf("empty id")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func loggingMiddleware(logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("x-request-id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("x-request-id", requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
