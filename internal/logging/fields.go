package logging

import "log/slog"

// Common field names for consistent logging across the collector.
const (
	FieldService = "service"
	FieldSource  = "source"
	FieldCycle   = "cycle_id"
	FieldAttempt = "attempt"
	FieldEvents  = "events"
	FieldDropped = "dropped"
	FieldError   = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Source returns a slog attribute for an upstream source label.
func Source(name string) slog.Attr {
	return slog.String(FieldSource, name)
}

// Cycle returns a slog attribute for a poll cycle id.
func Cycle(id string) slog.Attr {
	return slog.String(FieldCycle, id)
}

// Attempt returns a slog attribute for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(FieldAttempt, n)
}

// Events returns a slog attribute for an event count.
func Events(n int) slog.Attr {
	return slog.Int(FieldEvents, n)
}

// Dropped returns a slog attribute for a dropped-record count.
func Dropped(n int) slog.Attr {
	return slog.Int(FieldDropped, n)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
