package database

import "errors"

var (
	// ErrNotFound is returned when an id does not resolve to a reservation.
	ErrNotFound = errors.New("reservation not found")

	// ErrLogUnavailable is returned when the confirmation log table cannot
	// be read at all; callers decide whether that degrades or fails.
	ErrLogUnavailable = errors.New("confirmation log unavailable")
)
