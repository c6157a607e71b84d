package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

// opTimeout bounds every store operation; exceeding it surfaces as a
// retryable PersistenceError so the pipeline's retry/dead-letter logic owns
// the failure, not the database driver.
const opTimeout = 5 * time.Second

// PostgresStore persists signals to a signals table with a unique index on
// (release_external_id, signal_version).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Insert implements SignalStore.
func (s *PostgresStore) Insert(ctx context.Context, signal *models.UnifiedSignal) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		INSERT INTO signals (signal_id, signal_version, release_external_id,
		                     source_provider, normalized_event,
		                     actor, context_summary, raw_timestamp, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		signal.SignalID, signal.SignalVersion, signal.ReleaseExternalID,
		signal.SourceProvider, signal.NormalizedEvent,
		signal.Metadata.Actor, signal.Metadata.ContextSummary,
		signal.Metadata.RawTimestamp, signal.IngestedAt,
	)
	if err != nil {
		// Unique constraint violation (23505) means the fingerprint
		// already landed for this release.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSignal
		}
		return &PersistenceError{Op: "insert", Err: err}
	}

	return nil
}

const selectColumns = `
	signal_id, signal_version, release_external_id,
	source_provider, normalized_event,
	actor, context_summary, raw_timestamp, ingested_at
`

func scanSignal(row pgx.Row) (*models.UnifiedSignal, error) {
	var sig models.UnifiedSignal
	err := row.Scan(
		&sig.SignalID, &sig.SignalVersion, &sig.ReleaseExternalID,
		&sig.SourceProvider, &sig.NormalizedEvent,
		&sig.Metadata.Actor, &sig.Metadata.ContextSummary,
		&sig.Metadata.RawTimestamp, &sig.IngestedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sig, nil
}

// GetByFingerprint implements SignalStore.
func (s *PostgresStore) GetByFingerprint(ctx context.Context, releaseExternalID, fingerprint string) (*models.UnifiedSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `SELECT ` + selectColumns + `
		FROM signals
		WHERE release_external_id = $1 AND signal_version = $2`

	sig, err := scanSignal(s.pool.QueryRow(ctx, query, releaseExternalID, fingerprint))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSignalNotFound
		}
		return nil, &PersistenceError{Op: "get", Err: err}
	}
	return sig, nil
}

// ListByRelease implements SignalStore.
func (s *PostgresStore) ListByRelease(ctx context.Context, releaseExternalID string) ([]*models.UnifiedSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `SELECT ` + selectColumns + `
		FROM signals
		WHERE release_external_id = $1
		ORDER BY ingested_at DESC`

	rows, err := s.pool.Query(ctx, query, releaseExternalID)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	defer rows.Close()

	var out []*models.UnifiedSignal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, &PersistenceError{Op: "list", Err: err}
		}
		out = append(out, sig)
	}
	if rows.Err() != nil {
		return nil, &PersistenceError{Op: "list", Err: rows.Err()}
	}
	return out, nil
}

// Count implements SignalStore.
func (s *PostgresStore) Count(ctx context.Context, releaseExternalID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM signals WHERE release_external_id = $1`,
		releaseExternalID,
	).Scan(&n)
	if err != nil {
		return 0, &PersistenceError{Op: "count", Err: err}
	}
	return n, nil
}

// Ping implements SignalStore.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements SignalStore.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
