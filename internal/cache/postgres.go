package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fundlens/pkg/database"
	"github.com/wonny/fundlens/pkg/logger"
)

// PostgresStore backs the cache with a single table, for deployments that
// already run Postgres and want cache entries visible to SQL.
type PostgresStore struct {
	db  *database.DB
	log *logger.Logger
}

// NewPostgresStore ensures the cache table exists and returns the store.
func NewPostgresStore(ctx context.Context, db *database.DB, log *logger.Logger) (*PostgresStore, error) {
	if log == nil {
		log = logger.Nop()
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS cache_entries (
			id         TEXT        NOT NULL,
			kind       TEXT        NOT NULL,
			data       JSONB       NOT NULL,
			source     TEXT        NOT NULL DEFAULT '',
			validation JSONB,
			stored_at  TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (id, kind)
		)`
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create cache_entries table: %w", err)
	}

	return &PostgresStore{db: db, log: log.WithComponent("cache.postgres")}, nil
}

// Get implements Store.
func (p *PostgresStore) Get(ctx context.Context, id string, kind Kind) (*Entry, error) {
	const query = `
		SELECT data, source, validation, stored_at
		FROM cache_entries
		WHERE id = $1 AND kind = $2`

	var (
		data       []byte
		source     string
		validation []byte
		storedAt   time.Time
	)
	err := p.db.Pool.QueryRow(ctx, query, id, string(kind)).Scan(&data, &source, &validation, &storedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		p.log.WithError(err).Warn("cache query failed, treating as miss")
		return nil, ErrMiss
	}

	entry := &Entry{Data: data, Source: source, Timestamp: storedAt}
	if len(validation) > 0 {
		if err := json.Unmarshal(validation, &entry.Validation); err != nil {
			entry.Validation = nil
		}
	}

	if entry.Stale(kind) {
		return nil, ErrMiss
	}
	return entry, nil
}

// Put implements Store.
func (p *PostgresStore) Put(ctx context.Context, id string, kind Kind, e *Entry) error {
	const query = `
		INSERT INTO cache_entries (id, kind, data, source, validation, stored_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id, kind) DO UPDATE SET
			data = EXCLUDED.data,
			source = EXCLUDED.source,
			validation = EXCLUDED.validation,
			stored_at = EXCLUDED.stored_at`

	var validation []byte
	if e.Validation != nil {
		raw, err := json.Marshal(e.Validation)
		if err != nil {
			return fmt.Errorf("marshal validation report: %w", err)
		}
		validation = raw
	}

	if _, err := p.db.Pool.Exec(ctx, query, id, string(kind), []byte(e.Data), e.Source, validation, e.Timestamp); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// Delete implements Store.
func (p *PostgresStore) Delete(ctx context.Context, id string, kind Kind) error {
	if _, err := p.db.Pool.Exec(ctx,
		`DELETE FROM cache_entries WHERE id = $1 AND kind = $2`, id, string(kind)); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Purge implements Store.
func (p *PostgresStore) Purge(ctx context.Context) error {
	if _, err := p.db.Pool.Exec(ctx, `TRUNCATE cache_entries`); err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}
	return nil
}

// Stats implements Store. Expiry is evaluated per kind in SQL with the same
// TTLs Get applies.
func (p *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE stored_at < now() - make_interval(hours => CASE kind
				WHEN 'description' THEN 168
				WHEN 'mapping' THEN 720
				ELSE 24 END)),
			COALESCE(SUM(length(data::text)), 0)
		FROM cache_entries`

	var stats Stats
	if err := p.db.Pool.QueryRow(ctx, query).Scan(&stats.Entries, &stats.Expired, &stats.Bytes); err != nil {
		return stats, fmt.Errorf("query cache stats: %w", err)
	}
	return stats, nil
}
