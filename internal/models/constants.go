package models

// Reservation statuses. Pending is the initial state; Confirmed and
// Cancelled are terminal.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

const (
	// DefaultCacheTTL bounds the staleness of the confirmation-log snapshot cache.
	DefaultCacheTTL = 5 * 60 // seconds

	// WorkerQueueSize caps the in-memory export task queue.
	WorkerQueueSize = 64
)
