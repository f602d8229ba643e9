package service

import (
	"fmt"
	"strings"

	"venuebook/internal/models"
)

// ValidationError rejects a request before it touches the store.
type ValidationError struct {
	Missing []string
	Detail  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
	}
	return e.Detail
}

// ConflictError reports an overlapping confirmed interval. The message is
// display-ready: the caller has no other way to explain the rejection.
type ConflictError struct {
	Conflict *models.Conflict
}

func (e *ConflictError) Error() string {
	rangeStr := e.Conflict.Interval.DisplayRange()
	if e.Conflict.CustomerName != "" {
		return fmt.Sprintf("a confirmed event reservation for %s already exists on %s; please choose different dates",
			e.Conflict.CustomerName, rangeStr)
	}
	return fmt.Sprintf("a confirmed event reservation already exists on %s; please choose different dates", rangeStr)
}

// NotFoundError means the id does not resolve to a reservation.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("reservation %d not found", e.ID)
}

// StoreError wraps a persistence failure on the primary path.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
