package meter

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrations holds the goose migrations for the usage_events table.
// Apply them with pg.Migrate before constructing a PostgresStorage.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// PostgresStorage implements Storage backed by PostgreSQL via pgx.
//
// Appends run inside a transaction holding a per-stream advisory lock, so
// concurrent writers to the same stream queue up instead of racing, while
// writers on different streams proceed without coordination.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a ledger on top of an established pgx pool.
// Panics if pool is nil to fail fast during initialization.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	if pool == nil {
		panic("meter: pgx pool is required")
	}
	return &PostgresStorage{pool: pool}
}

const selectLatestQuery = `
SELECT id, reference_id, reference_type, feature_key, event,
       amount, after_amount, last_reset_at, created_at
FROM usage_events
WHERE reference_id = $1 AND feature_key = $2
  AND ($3 = '' OR event = $3)
ORDER BY created_at DESC
LIMIT 1`

// FindLatest returns the most recent event for the stream, optionally
// filtered by event tag.
func (s *PostgresStorage) FindLatest(ctx context.Context, referenceID, featureKey, eventFilter string) (*UsageEvent, error) {
	row := s.pool.QueryRow(ctx, selectLatestQuery, referenceID, featureKey, eventFilter)
	ev, err := scanUsageEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Join(ErrFailedToFetchLatestEvent, err)
	}
	return ev, nil
}

const insertEventQuery = `
INSERT INTO usage_events (id, reference_id, reference_type, feature_key, event,
                          amount, after_amount, last_reset_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Append re-reads the stream's latest row and inserts the materialized event
// inside one transaction serialized by an advisory lock on the stream key.
func (s *PostgresStorage) Append(ctx context.Context, draft EventDraft) (*UsageEvent, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToAppendUsageEvent, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// hashtext folds the stream key into the advisory lock space; the lock
	// releases automatically at transaction end.
	key := StreamKey(draft.ReferenceID, draft.FeatureKey)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return nil, errors.Join(ErrFailedToAppendUsageEvent, err)
	}

	row := tx.QueryRow(ctx, selectLatestQuery, draft.ReferenceID, draft.FeatureKey, "")
	latest, err := scanUsageEvent(row)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Join(ErrFailedToAppendUsageEvent, err)
	}

	ev := draft.materialize(latest)
	var lastResetAt any
	if !ev.LastResetAt.IsZero() {
		lastResetAt = ev.LastResetAt
	}
	if _, err := tx.Exec(ctx, insertEventQuery,
		ev.ID, ev.ReferenceID, ev.ReferenceType, ev.FeatureKey, ev.Event,
		ev.Amount, ev.AfterAmount, lastResetAt, ev.CreatedAt,
	); err != nil {
		if isSerializationFailure(err) {
			return nil, errors.Join(ErrConcurrentAppend, err)
		}
		return nil, errors.Join(ErrFailedToAppendUsageEvent, err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return nil, errors.Join(ErrConcurrentAppend, err)
		}
		return nil, errors.Join(ErrFailedToAppendUsageEvent, err)
	}

	return &ev, nil
}

type pgxRow interface {
	Scan(dest ...any) error
}

func scanUsageEvent(row pgxRow) (*UsageEvent, error) {
	var (
		ev          UsageEvent
		lastResetAt *time.Time
	)
	if err := row.Scan(
		&ev.ID, &ev.ReferenceID, &ev.ReferenceType, &ev.FeatureKey, &ev.Event,
		&ev.Amount, &ev.AfterAmount, &lastResetAt, &ev.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lastResetAt != nil {
		ev.LastResetAt = *lastResetAt
	}
	return &ev, nil
}

// isSerializationFailure detects transaction conflicts (SQLSTATE 40001) and
// deadlocks (40P01) that warrant a bounded retry of the append cycle.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}
