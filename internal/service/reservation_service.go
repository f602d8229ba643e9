package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venuebook/internal/database"
	"venuebook/internal/domain"
	"venuebook/internal/events"
	"venuebook/internal/interval"
	"venuebook/internal/metrics"
	"venuebook/internal/models"
	"venuebook/internal/resolver"

	"github.com/rs/zerolog"
)

// CreateRequest carries the raw reservation fields as submitted.
type CreateRequest struct {
	CustomerName   string `json:"customer_name"`
	Email          string `json:"email"`
	ContactNumber  string `json:"contact_number"`
	EventType      string `json:"event_type"`
	EventName      string `json:"event_name"`
	SpecialRequest string `json:"special_request"`
	StartDate      string `json:"event_start_date"`
	EndDate        string `json:"event_end_date"`
}

// StatusResult reports what a status transition actually did, including the
// best-effort side effects that may have partially failed.
type StatusResult struct {
	Status        string
	DeclinedCount int64
	Declined      []models.DeclinedReservation
	AuditLogged   bool
	Degraded      []string
}

// ReservationService implements the allocation rules over the store: overlap
// detection on create and confirm, the cascade decline, and the confirmation
// audit trail.
type ReservationService struct {
	store    domain.Store
	resolver *resolver.Resolver
	audit    domain.AuditRecorder
	bus      domain.EventPublisher
	cache    domain.SnapshotCache
	exporter domain.ExportWorker
	cacheTTL time.Duration
	logger   *zerolog.Logger
}

func NewReservationService(
	store domain.Store,
	res *resolver.Resolver,
	audit domain.AuditRecorder,
	bus domain.EventPublisher,
	cache domain.SnapshotCache,
	exporter domain.ExportWorker,
	cacheTTL time.Duration,
	logger *zerolog.Logger,
) *ReservationService {
	if cacheTTL <= 0 {
		cacheTTL = time.Duration(models.DefaultCacheTTL) * time.Second
	}
	return &ReservationService{
		store:    store,
		resolver: res,
		audit:    audit,
		bus:      bus,
		cache:    cache,
		exporter: exporter,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// CreateReservation validates the request, rejects intervals that overlap a
// confirmed reservation or a logged confirmation, and stores the rest as
// Pending.
func (s *ReservationService) CreateReservation(ctx context.Context, req CreateRequest) (*models.Reservation, error) {
	var missing []string
	if req.CustomerName == "" {
		missing = append(missing, "customer_name")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.ContactNumber == "" {
		missing = append(missing, "contact_number")
	}
	if req.StartDate == "" {
		missing = append(missing, "event_start_date")
	}
	if req.EndDate == "" {
		missing = append(missing, "event_end_date")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	iv, err := interval.Parse(req.StartDate, req.EndDate)
	if err != nil {
		return nil, &ValidationError{Detail: fmt.Sprintf("invalid event dates: %v", err)}
	}

	out, err := s.resolver.Check(ctx, iv, 0)
	if err != nil {
		return nil, &StoreError{Op: "conflict check", Err: err}
	}
	if out.Degraded {
		metrics.IncDegradedCheck()
	}
	if out.Conflict != nil {
		metrics.IncConflict(out.Conflict.Source)
		return nil, &ConflictError{Conflict: out.Conflict}
	}

	r := &models.Reservation{
		CustomerName:   req.CustomerName,
		Email:          req.Email,
		ContactNumber:  req.ContactNumber,
		EventType:      models.NormalizeDescriptor(req.EventType),
		EventName:      models.NormalizeDescriptor(req.EventName),
		SpecialRequest: req.SpecialRequest,
		StartDate:      iv.Start,
		EndDate:        iv.End,
		Status:         models.StatusPending,
	}
	if err := s.store.CreateReservation(ctx, r); err != nil {
		return nil, &StoreError{Op: "create reservation", Err: err}
	}

	metrics.IncCreated()
	s.publish(events.EventReservationCreated, r, 0, "")
	s.logger.Info().
		Int64("reservation_id", r.ID).
		Str("customer", r.CustomerName).
		Str("interval", iv.DisplayRange()).
		Msg("reservation created")
	return r, nil
}

// GetReservation returns a single reservation by id.
func (s *ReservationService) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, &StoreError{Op: "get reservation", Err: err}
	}
	return r, nil
}

// ListReservations returns every reservation, newest event first.
func (s *ReservationService) ListReservations(ctx context.Context) ([]*models.Reservation, error) {
	list, err := s.store.ListReservations(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list reservations", Err: err}
	}
	return list, nil
}

// SetStatus drives the Pending -> Confirmed/Cancelled transition. Confirming
// re-checks conflicts atomically with the status write, then runs the
// best-effort tail: audit append, cascade decline of overlapping pending
// reservations, cache invalidation, and an export enqueue.
func (s *ReservationService) SetStatus(ctx context.Context, id int64, status string) (*StatusResult, error) {
	if !models.ValidStatus(status) || status == models.StatusPending {
		return nil, &ValidationError{Detail: fmt.Sprintf("status must be %q or %q", models.StatusConfirmed, models.StatusCancelled)}
	}

	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, &StoreError{Op: "get reservation", Err: err}
	}

	if status == models.StatusCancelled {
		return s.cancel(ctx, r)
	}
	return s.confirm(ctx, r)
}

func (s *ReservationService) cancel(ctx context.Context, r *models.Reservation) (*StatusResult, error) {
	// Cancelling is idempotent: re-cancelling an already cancelled
	// reservation succeeds without complaint.
	if _, err := s.store.UpdateStatus(ctx, r.ID, models.StatusCancelled); err != nil {
		return nil, &StoreError{Op: "cancel reservation", Err: err}
	}
	r.Status = models.StatusCancelled

	s.publish(events.EventReservationCancelled, r, 0, "")
	s.logger.Info().Int64("reservation_id", r.ID).Msg("reservation cancelled")
	return &StatusResult{Status: models.StatusCancelled, AuditLogged: true}, nil
}

func (s *ReservationService) confirm(ctx context.Context, r *models.Reservation) (*StatusResult, error) {
	iv := r.Interval()
	result := &StatusResult{Status: models.StatusConfirmed}

	// The log source is only consultable here; the active table is
	// re-checked inside the confirmation transaction below.
	out, err := s.resolver.Check(ctx, iv, r.ID)
	if err != nil {
		return nil, &StoreError{Op: "conflict check", Err: err}
	}
	if out.Degraded {
		metrics.IncDegradedCheck()
		result.Degraded = append(result.Degraded, out.Reasons...)
	}
	if out.Conflict != nil {
		metrics.IncConflict(out.Conflict.Source)
		return nil, &ConflictError{Conflict: out.Conflict}
	}

	conflict, err := s.store.ConfirmReservation(ctx, r.ID, iv)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &NotFoundError{ID: r.ID}
		}
		return nil, &StoreError{Op: "confirm reservation", Err: err}
	}
	if conflict != nil {
		metrics.IncConflict(conflict.Source)
		return nil, &ConflictError{Conflict: conflict}
	}
	r.Status = models.StatusConfirmed
	metrics.IncConfirmed()
	s.publish(events.EventReservationConfirmed, r, 0, "")

	// Everything past this point is best effort: the confirmation already
	// committed and is never rolled back for a side-effect failure.
	result.AuditLogged = s.recordAudit(ctx, r, result)
	s.cascadeDecline(ctx, r, iv, result)
	s.invalidateCache(ctx)
	s.enqueueExport(ctx)

	s.logger.Info().
		Int64("reservation_id", r.ID).
		Int64("declined", result.DeclinedCount).
		Bool("audit_logged", result.AuditLogged).
		Msg("reservation confirmed")
	return result, nil
}

func (s *ReservationService) recordAudit(ctx context.Context, r *models.Reservation, result *StatusResult) bool {
	if _, err := s.audit.Record(ctx, r); err != nil {
		metrics.IncAuditFailure()
		result.Degraded = append(result.Degraded, fmt.Sprintf("confirmation log append failed: %v", err))
		s.logger.Error().Err(err).
			Int64("reservation_id", r.ID).
			Msg("confirmation log append failed, reservation stays confirmed")
		s.publish(events.EventAuditLogFailed, r, 0, err.Error())
		return false
	}
	return true
}

func (s *ReservationService) cascadeDecline(ctx context.Context, r *models.Reservation, iv interval.Interval, result *StatusResult) {
	pending, err := s.store.FindPendingOverlapping(ctx, iv, r.ID)
	if err != nil {
		result.Degraded = append(result.Degraded, fmt.Sprintf("cascade lookup failed: %v", err))
		s.logger.Error().Err(err).
			Int64("reservation_id", r.ID).
			Msg("could not look up overlapping pending reservations")
		return
	}
	if len(pending) == 0 {
		return
	}

	ids := make([]int64, 0, len(pending))
	for _, p := range pending {
		ids = append(ids, p.ID)
	}

	count, err := s.store.CancelReservations(ctx, ids)
	if err != nil {
		result.Degraded = append(result.Degraded, fmt.Sprintf("cascade decline failed: %v", err))
		s.logger.Error().Err(err).
			Int64("reservation_id", r.ID).
			Ints64("pending_ids", ids).
			Msg("could not decline overlapping pending reservations")
		return
	}

	result.DeclinedCount = count
	for _, p := range pending {
		p.Status = models.StatusCancelled
		result.Declined = append(result.Declined, models.DeclinedReservation{
			ID:       p.ID,
			Customer: p.CustomerName,
		})
		s.publish(events.EventReservationDeclined, p, r.ID, "overlaps confirmed reservation")
	}
	metrics.AddCascadeDeclined(len(pending))
}

// ListConfirmationLog serves the audit trail, preferring the snapshot cache.
// A missing or broken log table degrades to an empty list rather than an
// error: the log is informational, not a gate.
func (s *ReservationService) ListConfirmationLog(ctx context.Context) ([]*models.ConfirmationLogEntry, error) {
	if entries, ok, err := s.cache.GetLog(ctx); err == nil && ok {
		return entries, nil
	}

	entries, err := s.store.ListLogEntries(ctx)
	if err != nil {
		if errors.Is(err, database.ErrLogUnavailable) {
			s.logger.Warn().Err(err).Msg("confirmation log unavailable, serving empty list")
			return []*models.ConfirmationLogEntry{}, nil
		}
		return nil, &StoreError{Op: "list confirmation log", Err: err}
	}

	if err := s.cache.SetLog(ctx, entries, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("could not cache confirmation log snapshot")
	}
	return entries, nil
}

// EnqueueExport schedules an on-demand confirmation-log export.
func (s *ReservationService) EnqueueExport(ctx context.Context) error {
	if s.exporter == nil {
		return errors.New("export worker is not configured")
	}
	return s.exporter.EnqueueExport(ctx, "manual")
}

func (s *ReservationService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("could not invalidate confirmation log cache")
	}
}

func (s *ReservationService) enqueueExport(ctx context.Context) {
	if s.exporter == nil {
		return
	}
	if err := s.exporter.EnqueueExport(ctx, "confirmation"); err != nil {
		s.logger.Warn().Err(err).Msg("could not enqueue confirmation log export")
	}
}

func (s *ReservationService) publish(eventType string, r *models.Reservation, declinedBy int64, reason string) {
	if s.bus == nil {
		return
	}
	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		CustomerName:  r.CustomerName,
		StartDate:     r.StartDate.String(),
		EndDate:       r.EndDate.String(),
		Status:        r.Status,
		DeclinedBy:    declinedBy,
		Reason:        reason,
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("could not publish event")
	}
}
