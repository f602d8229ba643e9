package models

import (
	"time"

	"venuebook/internal/interval"
)

// ConfirmationLogEntry is the append-only audit record of a confirmed
// reservation. It has its own identity: LogID is the table key and Reference
// is a UUID that survives even if the source reservation row is later edited
// or removed. EventType empty means the descriptor was absent (stored NULL).
type ConfirmationLogEntry struct {
	LogID          int64         `json:"log_id"`
	Reference      string        `json:"reference"`
	EventType      string        `json:"event_type,omitempty"`
	CustomerName   string        `json:"customer_name"`
	Email          string        `json:"email"`
	ContactNumber  string        `json:"contact_number"`
	SpecialRequest string        `json:"special_request,omitempty"`
	StartDate      interval.Date `json:"event_start_date"`
	EndDate        interval.Date `json:"event_end_date"`
	ConfirmedAt    time.Time     `json:"confirmed_at"`
	Status         string        `json:"status"`
}

// Interval returns the logged date range.
func (e *ConfirmationLogEntry) Interval() interval.Interval {
	return interval.Interval{Start: e.StartDate, End: e.EndDate}
}
