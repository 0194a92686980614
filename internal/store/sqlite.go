package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Iron-Ham/maintenance/internal/errors"
	"github.com/Iron-Ham/maintenance/internal/task"
)

// SQLiteBackend stores documents as rows of a single SQLite table, one row
// per storage key.
type SQLiteBackend struct {
	db  *sql.DB
	key string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path, key string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	// Immediate transactions take the database write lock at BEGIN, so a
	// read-modify-write in Modify cannot interleave with another process.
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: writes are already serialized by the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	b := &SQLiteBackend{db: db, key: key}
	if err := b.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) migrate(ctx context.Context) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		`CREATE TABLE IF NOT EXISTS documents (
			key        TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := b.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// Name implements Backend.
func (b *SQLiteBackend) Name() string { return "sqlite" }

// Key returns the storage key the document is kept under.
func (b *SQLiteBackend) Key() string { return b.key }

// Load returns the document stored under the backend's key.
func (b *SQLiteBackend) Load(ctx context.Context) ([]byte, error) {
	var body string
	err := b.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, b.key).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return []byte(body), nil
}

// Save upserts the document in its own transaction.
func (b *SQLiteBackend) Save(ctx context.Context, data []byte) error {
	return b.Modify(ctx, func([]byte) ([]byte, error) { return data, nil })
}

// Modify reads and rewrites the document inside one immediate
// transaction, which holds the database write lock throughout.
func (b *SQLiteBackend) Modify(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		body    string
		current []byte
	)
	err = tx.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, b.key).Scan(&body)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("select document: %w", err)
	default:
		current = []byte(body)
	}

	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		b.key, string(next), task.FormatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
