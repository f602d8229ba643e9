package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// RegisterLogging subscribes a handler for every reservation lifecycle event
// so the application log carries the same trail the bus does.
func RegisterLogging(bus *EventBus, logger *zerolog.Logger) {
	types := []string{
		EventReservationCreated,
		EventReservationConfirmed,
		EventReservationCancelled,
		EventReservationDeclined,
		EventAuditLogFailed,
	}
	for _, eventType := range types {
		bus.Subscribe(eventType, logReservationEvent(logger))
	}
}

func logReservationEvent(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		var payload ReservationEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			logger.Warn().Err(err).Str("event", event.Type).Msg("undecodable event payload")
			return err
		}

		entry := logger.Info()
		if event.Type == EventAuditLogFailed {
			entry = logger.Warn()
		}

		entry = entry.
			Str("event", event.Type).
			Int64("reservation_id", payload.ReservationID).
			Str("customer", payload.CustomerName).
			Str("status", payload.Status)
		if payload.DeclinedBy != 0 {
			entry = entry.Int64("declined_by", payload.DeclinedBy)
		}
		if payload.Reason != "" {
			entry = entry.Str("reason", payload.Reason)
		}
		entry.Msg("reservation event")
		return nil
	}
}
