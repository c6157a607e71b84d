package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

// StreamName is the JetStream stream backing the DLQ.
const StreamName = "SIGNALS_DLQ"

// subjectPrefix scopes DLQ subjects: signals.dlq.<reason>.
const subjectPrefix = "signals.dlq."

// JetStreamQueue writes dead-lettered signals to NATS JetStream.
// Safe for use across multiple pipeline instances.
type JetStreamQueue struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	stream  jetstream.Stream
	logger  *slog.Logger
	written uint64
}

// NewJetStreamQueue connects to NATS and ensures the DLQ stream exists.
func NewJetStreamQueue(ctx context.Context, natsURL string, logger *slog.Logger) (*JetStreamQueue, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("shiplog-signals-dlq"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ">"},
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create dlq stream: %w", err)
	}

	logger.Info("DLQ stream ready", slog.String("stream", StreamName))

	return &JetStreamQueue{
		conn:   conn,
		js:     js,
		stream: stream,
		logger: logger,
	}, nil
}

// Write implements Writer.
func (q *JetStreamQueue) Write(ctx context.Context, signal *models.UnifiedSignal, cause error, reason string, attempts int) error {
	now := time.Now().UTC()
	entry := DeadSignal{
		Timestamp:   now,
		Signal:      signal,
		Error:       cause.Error(),
		Reason:      reason,
		Attempts:    attempts,
		LastAttempt: now,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}

	if _, err := q.js.Publish(ctx, subjectPrefix+reason, data); err != nil {
		q.logger.Error("DLQ publish failed",
			slog.String("signal_id", signal.SignalID),
			slog.String("error", err.Error()),
		)
		return err
	}

	atomic.AddUint64(&q.written, 1)
	q.logger.Warn("signal dead-lettered",
		slog.String("signal_id", signal.SignalID),
		slog.String("signal_version", signal.SignalVersion),
		slog.String("reason", reason),
		slog.Int("attempts", attempts),
	)
	return nil
}

// List returns up to limit dead-lettered signals via an ephemeral consumer.
func (q *JetStreamQueue) List(ctx context.Context, limit int) ([]DeadSignal, error) {
	if limit <= 0 {
		limit = 100
	}

	consumer, err := q.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: subjectPrefix + ">",
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxDeliver:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("create list consumer: %w", err)
	}

	msgs, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	var entries []DeadSignal
	for msg := range msgs.Messages() {
		var entry DeadSignal
		if err := json.Unmarshal(msg.Data(), &entry); err != nil {
			q.logger.Error("failed to parse DLQ message", slog.String("error", err.Error()))
			continue
		}
		entries = append(entries, entry)
	}
	if msgs.Error() != nil {
		q.logger.Warn("DLQ fetch completed with error", slog.String("error", msgs.Error().Error()))
	}

	return entries, nil
}

// Stats returns DLQ metrics from JetStream.
func (q *JetStreamQueue) Stats(ctx context.Context) map[string]interface{} {
	info, err := q.stream.Info(ctx)
	if err != nil {
		return map[string]interface{}{
			"backend":       "jetstream",
			"written_local": atomic.LoadUint64(&q.written),
			"error":         err.Error(),
		}
	}

	return map[string]interface{}{
		"backend":        "jetstream",
		"written_local":  atomic.LoadUint64(&q.written),
		"total_messages": info.State.Msgs,
		"total_bytes":    info.State.Bytes,
		"first_seq":      info.State.FirstSeq,
		"last_seq":       info.State.LastSeq,
	}
}

// Purge removes all entries from the DLQ stream.
func (q *JetStreamQueue) Purge(ctx context.Context) error {
	if err := q.stream.Purge(ctx); err != nil {
		return fmt.Errorf("purge dlq stream: %w", err)
	}
	return nil
}

// Close closes the underlying NATS connection.
func (q *JetStreamQueue) Close() {
	q.conn.Close()
}
