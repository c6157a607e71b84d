package logging

import "log/slog"

// Common field names for consistent logging across the pipeline.
const (
	FieldService     = "service"
	FieldRelease     = "release_external_id"
	FieldProvider    = "source_provider"
	FieldOriginID    = "origin_id"
	FieldSignalID    = "signal_id"
	FieldFingerprint = "signal_version"
	FieldEvent       = "normalized_event"
	FieldActor       = "actor"
	FieldIP          = "ip"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Release returns a slog attribute for the release context.
func Release(id string) slog.Attr {
	return slog.String(FieldRelease, id)
}

// Provider returns a slog attribute for the source provider kind.
func Provider(kind string) slog.Attr {
	return slog.String(FieldProvider, kind)
}

// OriginID returns a slog attribute for the upstream event's native ID.
func OriginID(id string) slog.Attr {
	return slog.String(FieldOriginID, id)
}

// SignalID returns a slog attribute for the signal ID.
func SignalID(id string) slog.Attr {
	return slog.String(FieldSignalID, id)
}

// Fingerprint returns a slog attribute for the signal fingerprint.
func Fingerprint(v string) slog.Attr {
	return slog.String(FieldFingerprint, v)
}

// Event returns a slog attribute for the normalized event label.
func Event(label string) slog.Attr {
	return slog.String(FieldEvent, label)
}

// Actor returns a slog attribute for the originating identity.
func Actor(name string) slog.Attr {
	return slog.String(FieldActor, name)
}

// IP returns a slog attribute for the delivery source IP.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}
