package audit

import (
	"context"
	"fmt"
	"time"

	"venuebook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the slice of the reservation store the audit logger needs.
type Store interface {
	InsertLogEntry(ctx context.Context, e *models.ConfirmationLogEntry) (int64, error)
}

// Logger derives and appends the durable confirmation record for a
// reservation. Appending is best-effort by design: the caller treats a
// returned error as a degradation to report, never as a reason to revert
// the confirmation.
type Logger struct {
	store  Store
	logger *zerolog.Logger
	now    func() time.Time
}

func New(store Store, logger *zerolog.Logger) *Logger {
	return &Logger{store: store, logger: logger, now: time.Now}
}

// Record builds a ConfirmationLogEntry from the confirmed reservation and
// appends it. The event descriptor follows the precedence rule: event type,
// then event name, then absent — sentinel values ("0", "null", blanks) never
// reach the log.
func (l *Logger) Record(ctx context.Context, r *models.Reservation) (*models.ConfirmationLogEntry, error) {
	descriptor := models.DeriveDescriptor(r.EventType, r.EventName)
	if descriptor == "" {
		l.logger.Warn().Int64("reservation_id", r.ID).Str("customer", r.CustomerName).
			Msg("no usable event descriptor, logging confirmation without one")
	}

	entry := &models.ConfirmationLogEntry{
		Reference:      uuid.NewString(),
		EventType:      descriptor,
		CustomerName:   r.CustomerName,
		Email:          r.Email,
		ContactNumber:  r.ContactNumber,
		SpecialRequest: r.SpecialRequest,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		ConfirmedAt:    l.now(),
		Status:         models.StatusConfirmed,
	}

	if _, err := l.store.InsertLogEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("append confirmation log: %w", err)
	}

	l.logger.Info().
		Int64("reservation_id", r.ID).
		Int64("log_id", entry.LogID).
		Str("reference", entry.Reference).
		Msg("confirmation logged")
	return entry, nil
}
