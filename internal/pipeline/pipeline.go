// Package pipeline binds adapters, the normalizer, the idempotency guard,
// and the persistor into the ingestion path for one release context.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shiplog-systems/shiplog-signals/internal/adapter"
	"github.com/shiplog-systems/shiplog-signals/internal/audit"
	"github.com/shiplog-systems/shiplog-signals/internal/dedup"
	"github.com/shiplog-systems/shiplog-signals/internal/dlq"
	"github.com/shiplog-systems/shiplog-signals/internal/logging"
	"github.com/shiplog-systems/shiplog-signals/internal/metrics"
	"github.com/shiplog-systems/shiplog-signals/internal/models"
	"github.com/shiplog-systems/shiplog-signals/internal/normalizer"
	"github.com/shiplog-systems/shiplog-signals/internal/persist"
)

// Status is the non-error outcome of an ingestion call.
type Status string

const (
	// StatusPersisted means the signal was new and durably stored.
	StatusPersisted Status = "persisted"

	// StatusDuplicate means the delivery repeated an already-processed
	// logical event. Callers should acknowledge it upstream so the
	// sender stops retrying.
	StatusDuplicate Status = "duplicate"
)

// Result is the outcome of one ingestion call.
type Result struct {
	Status Status

	// Signal is the persisted signal; nil for duplicates.
	Signal *models.UnifiedSignal

	// SignalVersion is set for both outcomes.
	SignalVersion string
}

// Config tunes the persistence retry policy.
type Config struct {
	// MaxRetries is the number of persistence attempts beyond the first.
	MaxRetries int

	// RetryBackoff is the initial backoff between attempts; it doubles
	// each retry.
	RetryBackoff time.Duration
}

// DefaultConfig returns the retry policy used when none is configured.
func DefaultConfig() Config {
	return Config{MaxRetries: 3, RetryBackoff: 250 * time.Millisecond}
}

// Deps are the collaborators shared by all pipelines of a deployment.
type Deps struct {
	Registry    *adapter.Registry
	Guard       dedup.Store
	Store       persist.SignalStore
	Trail       audit.Trail
	DeadLetters dlq.Writer
	Logger      *logging.Logger
	Config      Config
}

// Pipeline is the ingestion orchestrator bound to one release context.
// It is safe for concurrent Ingest calls: adapters and the normalizer are
// pure, and the guard owns the only shared mutable state.
type Pipeline struct {
	releaseExternalID string
	deps              Deps

	statsMu sync.RWMutex
	stats   models.IngestionStats
}

// New creates a pipeline for the given release context.
func New(releaseExternalID string, deps Deps) *Pipeline {
	if deps.Config.MaxRetries == 0 && deps.Config.RetryBackoff == 0 {
		deps.Config = DefaultConfig()
	}
	if deps.Trail == nil {
		deps.Trail = audit.NopTrail{}
	}
	if deps.DeadLetters == nil {
		deps.DeadLetters = dlq.NopWriter{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Pipeline{releaseExternalID: releaseExternalID, deps: deps}
}

// ReleaseExternalID returns the release context this pipeline is bound to.
func (p *Pipeline) ReleaseExternalID() string { return p.releaseExternalID }

// Ingest runs one raw payload through adapter, normalizer, guard, and
// persistor, short-circuiting on the first failure or duplicate.
//
// Per call: Received → Parsed → Normalized → {Accepted → Persisted} |
// Duplicate | Failed. There are no retries of the whole call; webhook
// senders redeliver, and the guard absorbs exactly that.
func (p *Pipeline) Ingest(ctx context.Context, providerKind string, payload json.RawMessage) (*Result, error) {
	log := p.deps.Logger.With(
		logging.Release(p.releaseExternalID),
		logging.Provider(providerKind),
	)

	a, err := p.deps.Registry.Find(providerKind)
	if err != nil {
		p.bumpStats(func(s *models.IngestionStats) { s.FailedDeliveries++ })
		metrics.SignalsTotal.WithLabelValues(providerKind, "unknown_provider").Inc()
		return nil, err
	}

	start := time.Now()
	rec, err := a.Parse(payload)
	if err != nil {
		p.bumpStats(func(s *models.IngestionStats) { s.ValidationErrors++ })
		metrics.ValidationErrors.WithLabelValues(providerKind).Inc()
		metrics.SignalsTotal.WithLabelValues(providerKind, "validation_error").Inc()
		log.WarnContext(ctx, "payload rejected", logging.Error(err))
		return nil, err
	}
	log.DebugContext(ctx, "payload parsed",
		logging.OriginID(rec.OriginID),
		logging.Actor(rec.Actor),
	)

	signal := normalizer.Normalize(rec, p.releaseExternalID)
	metrics.NormalizeDuration.Observe(time.Since(start).Seconds())

	outcome, err := p.deps.Guard.Admit(ctx, p.releaseExternalID, signal.SignalVersion)
	if err != nil {
		p.bumpStats(func(s *models.IngestionStats) { s.FailedDeliveries++ })
		metrics.SignalsTotal.WithLabelValues(providerKind, "guard_error").Inc()
		log.ErrorContext(ctx, "dedup store unavailable", logging.Error(err))
		return nil, err
	}
	if outcome == dedup.Duplicate {
		return p.duplicate(ctx, log, signal), nil
	}

	if err := p.persistWithRetry(ctx, log, signal); err != nil {
		if errors.Is(err, persist.ErrDuplicateSignal) {
			// Guard raced another instance, or a dedup entry expired;
			// the unique index caught it. Same contract: at most one row.
			return p.duplicate(ctx, log, signal), nil
		}
		return nil, err
	}

	p.bumpStats(func(s *models.IngestionStats) { s.PersistedSignals++ })
	metrics.SignalsTotal.WithLabelValues(providerKind, "persisted").Inc()
	p.deps.Trail.Record(ctx, audit.Entry{
		Subject:           audit.SubjectAuditAccepted,
		SignalID:          signal.SignalID,
		SignalVersion:     signal.SignalVersion,
		ReleaseExternalID: signal.ReleaseExternalID,
		SourceProvider:    signal.SourceProvider,
		NormalizedEvent:   signal.NormalizedEvent,
	})
	log.InfoContext(ctx, "signal persisted",
		logging.SignalID(signal.SignalID),
		logging.Fingerprint(signal.SignalVersion),
		logging.Event(signal.NormalizedEvent),
	)

	return &Result{
		Status:        StatusPersisted,
		Signal:        signal,
		SignalVersion: signal.SignalVersion,
	}, nil
}

func (p *Pipeline) duplicate(ctx context.Context, log *logging.Logger, signal *models.UnifiedSignal) *Result {
	p.bumpStats(func(s *models.IngestionStats) { s.Duplicates++ })
	metrics.DuplicatesTotal.WithLabelValues(signal.SourceProvider).Inc()
	metrics.SignalsTotal.WithLabelValues(signal.SourceProvider, "duplicate").Inc()
	p.deps.Trail.Record(ctx, audit.Entry{
		Subject:           audit.SubjectAuditDuplicate,
		SignalID:          signal.SignalID,
		SignalVersion:     signal.SignalVersion,
		ReleaseExternalID: signal.ReleaseExternalID,
		SourceProvider:    signal.SourceProvider,
		NormalizedEvent:   signal.NormalizedEvent,
	})
	log.InfoContext(ctx, "duplicate delivery dropped",
		logging.Fingerprint(signal.SignalVersion),
	)
	return &Result{Status: StatusDuplicate, SignalVersion: signal.SignalVersion}
}

// persistWithRetry writes the signal, retrying retryable failures with
// doubling backoff. When retries are exhausted the signal is dead-lettered:
// its fingerprint is already recorded by the guard, so silently dropping it
// would suppress every future redelivery of the same logical event.
func (p *Pipeline) persistWithRetry(ctx context.Context, log *logging.Logger, signal *models.UnifiedSignal) error {
	attempts := 1 + p.deps.Config.MaxRetries
	backoff := p.deps.Config.RetryBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		err := p.deps.Store.Insert(ctx, signal)
		metrics.PersistDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			return nil
		}
		if errors.Is(err, persist.ErrDuplicateSignal) {
			return err
		}
		lastErr = err
		if !persist.IsRetryable(err) {
			break
		}
		if attempt < attempts {
			metrics.PersistenceRetries.Inc()
			log.WarnContext(ctx, "persist attempt failed, retrying",
				logging.SignalID(signal.SignalID),
				logging.Error(err),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				lastErr = &persist.PersistenceError{Op: "insert", Err: ctx.Err()}
				attempt = attempts
			}
			backoff *= 2
		}
	}

	p.bumpStats(func(s *models.IngestionStats) { s.FailedDeliveries++ })
	metrics.SignalsTotal.WithLabelValues(signal.SourceProvider, "persist_failed").Inc()
	metrics.DeadLetters.Inc()

	// Detached from the call context: when the call's deadline is what
	// killed the insert, it must not also kill the dead-letter write, or
	// the signal is lost while its fingerprint stays recorded.
	dlqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if dlqErr := p.deps.DeadLetters.Write(dlqCtx, signal, lastErr, "persist_failed", attempts); dlqErr != nil {
		log.ErrorContext(ctx, "dead-letter write failed",
			logging.SignalID(signal.SignalID),
			logging.Error(dlqErr),
		)
	}
	p.deps.Trail.Record(dlqCtx, audit.Entry{
		Subject:           audit.SubjectAuditDeadLetter,
		SignalID:          signal.SignalID,
		SignalVersion:     signal.SignalVersion,
		ReleaseExternalID: signal.ReleaseExternalID,
		SourceProvider:    signal.SourceProvider,
		NormalizedEvent:   signal.NormalizedEvent,
		Detail:            lastErr.Error(),
	})
	log.ErrorContext(ctx, "signal dead-lettered after exhausting retries",
		logging.SignalID(signal.SignalID),
		logging.Error(lastErr),
	)

	return lastErr
}

func (p *Pipeline) bumpStats(fn func(*models.IngestionStats)) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.TotalDeliveries++
	p.stats.LastDelivery = time.Now()
	fn(&p.stats)
}

// Stats returns a snapshot of the pipeline's counters.
func (p *Pipeline) Stats() models.IngestionStats {
	p.statsMu.RLock()
	defer p.statsMu.RUnlock()
	return p.stats
}
