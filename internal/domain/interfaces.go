package domain

import (
	"context"
	"time"

	"venuebook/internal/interval"
	"venuebook/internal/models"
)

// Store is the durable reservation store consumed by the service layer.
type Store interface {
	CreateReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	ListReservations(ctx context.Context) ([]*models.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status string) (int64, error)
	ConfirmReservation(ctx context.Context, id int64, iv interval.Interval) (*models.Conflict, error)
	FindConfirmedOverlapping(ctx context.Context, iv interval.Interval, excludeID int64) (*models.Conflict, error)
	FindPendingOverlapping(ctx context.Context, iv interval.Interval, excludeID int64) ([]*models.Reservation, error)
	CancelReservations(ctx context.Context, ids []int64) (int64, error)
	InsertLogEntry(ctx context.Context, e *models.ConfirmationLogEntry) (int64, error)
	ListLogEntries(ctx context.Context) ([]*models.ConfirmationLogEntry, error)
	FindConfirmedOverlappingLog(ctx context.Context, iv interval.Interval) (*models.Conflict, error)
}

// ConflictSource answers whether a confirmed record overlaps the interval.
// The resolver merges one active source and one log source.
type ConflictSource interface {
	FindConfirmedOverlap(ctx context.Context, iv interval.Interval, excludeID int64) (*models.Conflict, error)
}

// AuditRecorder appends the durable confirmation record for a reservation.
type AuditRecorder interface {
	Record(ctx context.Context, r *models.Reservation) (*models.ConfirmationLogEntry, error)
}

// EventPublisher pushes lifecycle events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SnapshotCache holds the rendered confirmation-log snapshot between
// confirmations. Implementations must be safe to lose: the store stays the
// source of truth.
type SnapshotCache interface {
	GetLog(ctx context.Context) ([]*models.ConfirmationLogEntry, bool, error)
	SetLog(ctx context.Context, entries []*models.ConfirmationLogEntry, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// ExportWorker schedules background confirmation-log exports.
type ExportWorker interface {
	EnqueueExport(ctx context.Context, reason string) error
}
