// Package models defines the wire and storage shapes shared across the
// signal pipeline.
package models

import "time"

// IntermediateRecord is the provider-neutral shape a raw webhook payload is
// parsed into. It is request-scoped: produced by exactly one provider
// adapter and consumed once by the normalizer, never persisted.
type IntermediateRecord struct {
	// Source is the provider kind, e.g. "github-like" or "jira-like".
	Source string `json:"source"`

	// OriginID is the native ID of the originating event (delivery ID,
	// issue key). Combined with Source and EventType it identifies the
	// logical event across redeliveries.
	OriginID string `json:"origin_id"`

	// Actor is the human or automated identity that triggered the event.
	Actor string `json:"actor"`

	// EventType is the provider's event label before canonicalization.
	EventType string `json:"event_type"`

	// Context is a free-text summary of where the event happened.
	Context string `json:"context"`

	// Timestamp is the origin timestamp as reported at parse time.
	Timestamp time.Time `json:"timestamp"`
}

// SignalMetadata carries the descriptive fields of a unified signal.
// Downstream aggregation expects ContextSummary to always be present.
type SignalMetadata struct {
	Actor          string    `json:"actor"`
	ContextSummary string    `json:"context_summary"`
	RawTimestamp   time.Time `json:"raw_timestamp"`
}

// UnifiedSignal is the canonical, persisted form of one upstream event
// scoped to a release. It is immutable after normalization.
type UnifiedSignal struct {
	// SignalID is assigned once at normalization time and never reused.
	SignalID string `json:"signal_id"`

	// SignalVersion is the deterministic fingerprint over
	// (source, origin_id, event_type). It is the idempotency key: the
	// same logical event always hashes to the same version, so webhook
	// redeliveries collapse onto one persisted row.
	SignalVersion string `json:"signal_version"`

	// ReleaseExternalID is the release context the signal is scoped to.
	// It is supplied by the pipeline, not derivable from the payload.
	ReleaseExternalID string `json:"release_external_id"`

	// SourceProvider is the canonicalized provider label.
	SourceProvider string `json:"source_provider"`

	// NormalizedEvent is the canonical event label: uppercase, internal
	// whitespace collapsed to single underscores.
	NormalizedEvent string `json:"normalized_event"`

	Metadata SignalMetadata `json:"metadata"`

	// IngestedAt is the time of acceptance by the pipeline.
	IngestedAt time.Time `json:"ingested_at"`
}

// IngestionStats tracks per-process pipeline counters, exposed on /readyz.
type IngestionStats struct {
	TotalDeliveries  int64     `json:"total_deliveries"`
	PersistedSignals int64     `json:"persisted_signals"`
	Duplicates       int64     `json:"duplicates"`
	ValidationErrors int64     `json:"validation_errors"`
	FailedDeliveries int64     `json:"failed_deliveries"`
	LastDelivery     time.Time `json:"last_delivery"`
}
