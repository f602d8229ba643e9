package models

import "strings"

// NormalizeDescriptor converts historical sentinel values for "unset" to the
// empty string. Upstream data stored literal zeros and the word "null" where
// no event descriptor was chosen, so those must never be treated as real
// labels.
func NormalizeDescriptor(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || s == "0" || strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

// DeriveDescriptor picks the event descriptor for audit records: event type
// first, event name as fallback, empty when neither survives normalization.
func DeriveDescriptor(eventType, eventName string) string {
	if d := NormalizeDescriptor(eventType); d != "" {
		return d
	}
	return NormalizeDescriptor(eventName)
}
