package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Iron-Ham/maintenance/internal/errors"
)

const postgresTable = "maintenance_documents"

// PostgresBackend stores documents as JSONB rows keyed by storage key.
type PostgresBackend struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgresBackend wraps an existing pool. Close closes the pool.
func NewPostgresBackend(pool *pgxpool.Pool, key string) *PostgresBackend {
	return &PostgresBackend{pool: pool, key: key}
}

// OpenPostgres connects to url and ensures the documents table exists.
func OpenPostgres(ctx context.Context, url, key string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	b := NewPostgresBackend(pool, key)
	if err := b.EnsureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

// EnsureTable creates the documents table if it doesn't exist.
func (b *PostgresBackend) EnsureTable(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+postgresTable+` (
			key        TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("ensure table: %w", err)
	}
	return nil
}

// Name implements Backend.
func (b *PostgresBackend) Name() string { return "postgres" }

// Key returns the storage key the document is kept under.
func (b *PostgresBackend) Key() string { return b.key }

// Load returns the document stored under the backend's key.
func (b *PostgresBackend) Load(ctx context.Context) ([]byte, error) {
	var body string
	err := b.pool.QueryRow(ctx, `SELECT body::text FROM `+postgresTable+` WHERE key = $1`, b.key).Scan(&body)
	if err == pgx.ErrNoRows {
		return nil, errors.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return []byte(body), nil
}

// Save upserts the document.
func (b *PostgresBackend) Save(ctx context.Context, data []byte) error {
	return b.Modify(ctx, func([]byte) ([]byte, error) { return data, nil })
}

// Modify reads and rewrites the document in one transaction holding a
// transaction-scoped advisory lock on the key. The advisory lock also
// covers the first write, before any row exists to lock.
func (b *PostgresBackend) Modify(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, b.key); err != nil {
		return fmt.Errorf("lock document: %w", err)
	}

	var (
		body    string
		current []byte
	)
	err = tx.QueryRow(ctx, `SELECT body::text FROM `+postgresTable+` WHERE key = $1`, b.key).Scan(&body)
	switch {
	case err == pgx.ErrNoRows:
	case err != nil:
		return fmt.Errorf("select document: %w", err)
	default:
		current = []byte(body)
	}

	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO `+postgresTable+` (key, body, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		b.key, string(next))
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the pool.
func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
