// Package normalizer maps intermediate records into the unified signal
// schema and computes their deterministic fingerprints.
package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

// fingerprintDelimiter scopes the digest input fields so concatenation
// ambiguity ("github"+"1"+"2" vs "github1"+"2") cannot collide.
const fingerprintDelimiter = ":"

// Canonicalize trims the label and collapses each internal whitespace run to
// a single underscore, preserving case. Issue-tracker statuses like
// "In Review" arrive with embedded spaces; the canonical form is what both
// the fingerprint and the stored event label are derived from.
func Canonicalize(label string) string {
	return strings.Join(strings.Fields(label), "_")
}

// CanonicalEvent returns the stored normalized_event form of a label:
// the uppercased canonical form.
func CanonicalEvent(label string) string {
	return strings.ToUpper(Canonicalize(label))
}

// Fingerprint computes the idempotency key for a logical event: the
// lowercase-hex SHA-256 of source, origin ID, and canonicalized event type
// joined with a fixed delimiter. No randomness and no clock goes in, so
// redeliveries of the same event always collide.
func Fingerprint(source, originID, eventType string) string {
	input := source + fingerprintDelimiter + originID + fingerprintDelimiter + Canonicalize(eventType)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Normalize converts an intermediate record into a UnifiedSignal scoped to
// the given release. The signal gets a fresh ID and a computed fingerprint;
// whether it survives past the idempotency guard is the pipeline's call.
func Normalize(rec *models.IntermediateRecord, releaseExternalID string) *models.UnifiedSignal {
	return &models.UnifiedSignal{
		SignalID:          uuid.New().String(),
		SignalVersion:     Fingerprint(rec.Source, rec.OriginID, rec.EventType),
		ReleaseExternalID: releaseExternalID,
		SourceProvider:    rec.Source,
		NormalizedEvent:   CanonicalEvent(rec.EventType),
		Metadata: models.SignalMetadata{
			Actor:          rec.Actor,
			ContextSummary: rec.Context,
			RawTimestamp:   rec.Timestamp,
		},
		IngestedAt: time.Now().UTC(),
	}
}
