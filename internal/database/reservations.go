package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"venuebook/internal/interval"
	"venuebook/internal/models"
)

const reservationColumns = `id, customer_name, email, contact_number,
       event_type, event_name, special_request,
       event_start_date, event_end_date, status, created_at, updated_at`

// CreateReservation inserts a new Pending reservation and fills in its id.
func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	query := `INSERT INTO reservations (
				customer_name, email, contact_number, event_type, event_name,
				special_request, event_start_date, event_end_date, status,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	if r.Status == "" {
		r.Status = models.StatusPending
	}

	var result sql.Result
	err := db.withHeal(ctx, "reservations", func() error {
		var execErr error
		result, execErr = db.ExecContext(ctx, query,
			r.CustomerName,
			r.Email,
			r.ContactNumber,
			nullIfEmpty(r.EventType),
			nullIfEmpty(r.EventName),
			nullIfEmpty(r.SpecialRequest),
			r.StartDate.String(),
			r.EndDate.String(),
			r.Status,
			now,
			now,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetReservation returns a reservation by id or ErrNotFound.
func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`

	var r *models.Reservation
	err := db.withHeal(ctx, "reservations", func() error {
		row := db.QueryRowContext(ctx, query, id)
		var scanErr error
		r, scanErr = scanReservation(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r, nil
}

// ListReservations returns every reservation, latest start date first.
func (db *DB) ListReservations(ctx context.Context) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY event_start_date DESC, id DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status and returns the affected row count. A
// redundant update (same status again) still counts as one affected row in
// SQLite, so callers get idempotent cancels for free.
func (db *DB) UpdateStatus(ctx context.Context, id int64, status string) (int64, error) {
	query := `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`
	var affected int64
	err := db.withHeal(ctx, "reservations", func() error {
		result, execErr := db.ExecContext(ctx, query, status, time.Now(), id)
		if execErr != nil {
			return execErr
		}
		affected, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update reservation status: %w", err)
	}
	return affected, nil
}

// FindConfirmedOverlapping returns the first Confirmed reservation whose
// interval overlaps iv, excluding excludeID (0 excludes nothing), or nil.
func (db *DB) FindConfirmedOverlapping(ctx context.Context, iv interval.Interval, excludeID int64) (*models.Conflict, error) {
	query := `SELECT id, customer_name, event_start_date, event_end_date
	          FROM reservations
	          WHERE id != ? AND status = ?
	          AND event_start_date <= ? AND event_end_date >= ?
	          ORDER BY id LIMIT 1`

	var conflict *models.Conflict
	err := db.withHeal(ctx, "reservations", func() error {
		row := db.QueryRowContext(ctx, query, excludeID, models.StatusConfirmed, iv.End.String(), iv.Start.String())
		c, scanErr := scanConflict(row, "active")
		conflict = c
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query confirmed overlaps: %w", err)
	}
	return conflict, nil
}

// FindPendingOverlapping returns every reservation still competing for iv:
// status Pending or unset (NULL status rows predate the status column).
func (db *DB) FindPendingOverlapping(ctx context.Context, iv interval.Interval, excludeID int64) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
	          FROM reservations
	          WHERE id != ? AND (status = ? OR status IS NULL)
	          AND event_start_date <= ? AND event_end_date >= ?
	          ORDER BY id`

	rows, err := db.QueryContext(ctx, query, excludeID, models.StatusPending, iv.End.String(), iv.Start.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query pending overlaps: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CancelReservations declines the given ids in one statement and returns how
// many rows changed.
func (db *DB) CancelReservations(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`UPDATE reservations SET status = ?, updated_at = ? WHERE id IN (%s)`, placeholders)

	args := make([]any, 0, len(ids)+2)
	args = append(args, models.StatusCancelled, time.Now())
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel reservations: %w", err)
	}
	return result.RowsAffected()
}

// ConfirmReservation re-checks for confirmed overlaps and commits the status
// change in a single transaction, so two concurrent confirms of overlapping
// reservations cannot both succeed. A non-nil conflict means nothing was
// committed and the reservation keeps its previous status.
func (db *DB) ConfirmReservation(ctx context.Context, id int64, iv interval.Interval) (*models.Conflict, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	queryCheck := `SELECT id, customer_name, event_start_date, event_end_date
	               FROM reservations
	               WHERE id != ? AND status = ?
	               AND event_start_date <= ? AND event_end_date >= ?
	               ORDER BY id LIMIT 1`
	row := tx.QueryRowContext(ctx, queryCheck, id, models.StatusConfirmed, iv.End.String(), iv.Start.String())
	conflict, err := scanConflict(row, "active")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to re-check overlaps in tx: %w", err)
	}
	if conflict != nil {
		return conflict, nil
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
		models.StatusConfirmed, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm reservation in tx: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return nil, tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		r                             models.Reservation
		eventType, eventName, special sql.NullString
		status                        sql.NullString
		startStr, endStr              string
	)
	err := row.Scan(
		&r.ID, &r.CustomerName, &r.Email, &r.ContactNumber,
		&eventType, &eventName, &special,
		&startStr, &endStr, &status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Sentinel normalization happens once, at read time.
	r.EventType = models.NormalizeDescriptor(eventType.String)
	r.EventName = models.NormalizeDescriptor(eventName.String)
	r.SpecialRequest = special.String
	r.Status = status.String
	if r.Status == "" {
		r.Status = models.StatusPending
	}

	if r.StartDate, err = interval.ParseDate(startStr); err != nil {
		return nil, err
	}
	if r.EndDate, err = interval.ParseDate(endStr); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanConflict(row rowScanner, source string) (*models.Conflict, error) {
	var (
		c                models.Conflict
		startStr, endStr string
	)
	if err := row.Scan(&c.ReservationID, &c.CustomerName, &startStr, &endStr); err != nil {
		return nil, err
	}

	var err error
	if c.Interval.Start, err = interval.ParseDate(startStr); err != nil {
		return nil, err
	}
	if c.Interval.End, err = interval.ParseDate(endStr); err != nil {
		return nil, err
	}
	c.Source = source
	return &c, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
