package models

import (
	"time"

	"venuebook/internal/interval"
)

// Reservation is one submitted request for the venue. Mutable, one row per
// request. EventType and EventName are already sentinel-normalized at the
// ingestion boundary: empty string means "not set".
type Reservation struct {
	ID             int64         `json:"id"`
	CustomerName   string        `json:"customer_name"`
	Email          string        `json:"email"`
	ContactNumber  string        `json:"contact_number"`
	EventType      string        `json:"event_type,omitempty"`
	EventName      string        `json:"event_name,omitempty"`
	SpecialRequest string        `json:"special_request,omitempty"`
	StartDate      interval.Date `json:"event_start_date"`
	EndDate        interval.Date `json:"event_end_date"`
	Status         string        `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Interval returns the reservation's closed date range.
func (r *Reservation) Interval() interval.Interval {
	return interval.Interval{Start: r.StartDate, End: r.EndDate}
}

// Conflict identifies the record that blocks a candidate interval,
// with enough detail for a user-facing message.
type Conflict struct {
	Source        string // "active" or "log"
	ReservationID int64
	LogID         int64
	CustomerName  string
	Interval      interval.Interval
}

// DeclinedReservation is reported back to the caller after a cascade.
type DeclinedReservation struct {
	ID       int64  `json:"id"`
	Customer string `json:"customer"`
}
