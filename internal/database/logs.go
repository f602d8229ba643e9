package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"venuebook/internal/interval"
	"venuebook/internal/models"
)

const confirmedAtLayout = "2006-01-02 15:04:05"

// InsertLogEntry appends one confirmation record and returns its log id.
// Dates and the confirmation instant are written as canonical local text.
func (db *DB) InsertLogEntry(ctx context.Context, e *models.ConfirmationLogEntry) (int64, error) {
	query := `INSERT INTO confirmation_logs (
				reference, event_type, customer_name, email, contact_number,
				special_request, event_start_date, event_end_date, confirmed_at, status
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if e.ConfirmedAt.IsZero() {
		e.ConfirmedAt = time.Now()
	}
	if e.Status == "" {
		e.Status = models.StatusConfirmed
	}

	var result sql.Result
	err := db.withHeal(ctx, "confirmation_logs", func() error {
		var execErr error
		result, execErr = db.ExecContext(ctx, query,
			e.Reference,
			nullIfEmpty(e.EventType),
			e.CustomerName,
			e.Email,
			e.ContactNumber,
			nullIfEmpty(e.SpecialRequest),
			e.StartDate.String(),
			e.EndDate.String(),
			e.ConfirmedAt.Format(confirmedAtLayout),
			e.Status,
		)
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get log insert id: %w", err)
	}
	e.LogID = id
	return id, nil
}

// ListLogEntries returns the full confirmation log, newest confirmation
// first. A missing or unreadable log table yields ErrLogUnavailable so the
// caller can degrade to an empty snapshot instead of failing the request.
func (db *DB) ListLogEntries(ctx context.Context) ([]*models.ConfirmationLogEntry, error) {
	query := `SELECT log_id, reference, event_type, customer_name, email, contact_number,
	                 special_request, event_start_date, event_end_date, confirmed_at, status
	          FROM confirmation_logs ORDER BY confirmed_at DESC, log_id DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}
	defer rows.Close()

	var out []*models.ConfirmationLogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindConfirmedOverlappingLog returns the first logged confirmation whose
// interval overlaps iv, or nil. The log is consulted independently of the
// active table: it is the durable record that a slot was once promised.
func (db *DB) FindConfirmedOverlappingLog(ctx context.Context, iv interval.Interval) (*models.Conflict, error) {
	query := `SELECT log_id, customer_name, event_start_date, event_end_date
	          FROM confirmation_logs
	          WHERE status = ?
	          AND event_start_date <= ? AND event_end_date >= ?
	          ORDER BY log_id LIMIT 1`

	row := db.QueryRowContext(ctx, query, models.StatusConfirmed, iv.End.String(), iv.Start.String())

	var (
		c                models.Conflict
		startStr, endStr string
	)
	err := row.Scan(&c.LogID, &c.CustomerName, &startStr, &endStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}

	if c.Interval.Start, err = interval.ParseDate(startStr); err != nil {
		return nil, err
	}
	if c.Interval.End, err = interval.ParseDate(endStr); err != nil {
		return nil, err
	}
	c.Source = "log"
	return &c, nil
}

func scanLogEntry(row rowScanner) (*models.ConfirmationLogEntry, error) {
	var (
		e                  models.ConfirmationLogEntry
		eventType, special sql.NullString
		startStr, endStr   string
		confirmedStr       string
	)
	err := row.Scan(
		&e.LogID, &e.Reference, &eventType, &e.CustomerName, &e.Email, &e.ContactNumber,
		&special, &startStr, &endStr, &confirmedStr, &e.Status,
	)
	if err != nil {
		return nil, err
	}

	e.EventType = models.NormalizeDescriptor(eventType.String)
	e.SpecialRequest = special.String

	if e.StartDate, err = interval.ParseDate(startStr); err != nil {
		return nil, err
	}
	if e.EndDate, err = interval.ParseDate(endStr); err != nil {
		return nil, err
	}
	if e.ConfirmedAt, err = time.ParseInLocation(confirmedAtLayout, confirmedStr, time.Local); err != nil {
		return nil, fmt.Errorf("failed to parse confirmed_at %q: %w", confirmedStr, err)
	}
	return &e, nil
}
