// Package audit records an observable trail of pipeline decisions.
//
// Every accepted, duplicate, and dead-lettered signal produces one entry on
// the message bus. The trail is observability, not correctness: a failed
// audit publish is logged and never fails the ingestion call.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects for the audit trail, following {domain}.{action}.{resource}.
const (
	SubjectAuditAccepted   = "signals.audit.accepted"
	SubjectAuditDuplicate  = "signals.audit.duplicate"
	SubjectAuditDeadLetter = "signals.audit.deadletter"
)

// Entry is one audit record.
type Entry struct {
	Subject           string    `json:"-"`
	SignalID          string    `json:"signal_id"`
	SignalVersion     string    `json:"signal_version"`
	ReleaseExternalID string    `json:"release_external_id"`
	SourceProvider    string    `json:"source_provider"`
	NormalizedEvent   string    `json:"normalized_event"`
	Detail            string    `json:"detail,omitempty"`
	RecordedAt        time.Time `json:"recorded_at"`
	Signature         string    `json:"signature"`
}

// Trail records audit entries.
type Trail interface {
	Record(ctx context.Context, entry Entry)
	Close()
}

// NATSTrail publishes audit entries to the message bus.
type NATSTrail struct {
	conn   *nats.Conn
	signer *Signer
	logger *slog.Logger
}

// NewNATSTrail connects to NATS and returns a publishing trail.
func NewNATSTrail(natsURL, secretKey string, logger *slog.Logger) (*NATSTrail, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("shiplog-signals-audit"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &NATSTrail{
		conn:   conn,
		signer: NewSigner(secretKey),
		logger: logger,
	}, nil
}

// Record implements Trail. The entry is signed, then published fire-and-forget.
func (t *NATSTrail) Record(ctx context.Context, entry Entry) {
	if err := ctx.Err(); err != nil {
		return
	}

	entry.RecordedAt = time.Now().UTC()
	entry.Signature = t.signer.Sign(entry.SignalID, entry.SignalVersion, entry.RecordedAt)

	if err := publishJSON(t.conn, entry.Subject, entry); err != nil {
		t.logger.Warn("audit publish failed",
			slog.String("subject", entry.Subject),
			slog.String("signal_id", entry.SignalID),
			slog.String("error", err.Error()),
		)
	}
}

// Close implements Trail.
func (t *NATSTrail) Close() {
	t.conn.Close()
}

func publishJSON(conn *nats.Conn, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Publish(subject, data)
}

// NopTrail discards entries; used when NATS is disabled.
type NopTrail struct{}

// Record implements Trail.
func (NopTrail) Record(context.Context, Entry) {}

// Close implements Trail.
func (NopTrail) Close() {}
