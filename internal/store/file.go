package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Iron-Ham/maintenance/internal/errors"
)

// FileBackend stores the document as <dir>/<key>.json.
type FileBackend struct {
	dir string
	key string

	// lastHash is the digest of the most recent document this backend
	// wrote or read, so the watcher can ignore our own writes.
	mu       sync.Mutex
	lastHash [sha256.Size]byte
}

// NewFileBackend creates a FileBackend, creating dir if needed.
func NewFileBackend(dir, key string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir, key: key}, nil
}

// Name implements Backend.
func (b *FileBackend) Name() string { return "file" }

// Key returns the storage key the document is kept under.
func (b *FileBackend) Key() string { return b.key }

// Path returns the document path.
func (b *FileBackend) Path() string {
	return filepath.Join(b.dir, b.key+".json")
}

// Load reads the document under a shared lock.
func (b *FileBackend) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fl := NewFileLock(b.dir, b.key)
	if err := fl.RLock(); err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	data, err := os.ReadFile(b.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrNoDocument
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	b.remember(data)
	return data, nil
}

// Save writes the document atomically: the data goes to a temporary file
// that is then renamed into place, all under an exclusive lock.
func (b *FileBackend) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fl := NewFileLock(b.dir, b.key)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	return b.write(data)
}

// Modify holds the exclusive lock from reading the document until its
// replacement is renamed into place, so concurrent processes apply their
// changes one after another.
func (b *FileBackend) Modify(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fl := NewFileLock(b.dir, b.key)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	current, err := os.ReadFile(b.Path())
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read document: %w", err)
		}
		current = nil
	}

	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}
	return b.write(next)
}

// write replaces the document. The caller holds the exclusive lock.
func (b *FileBackend) write(data []byte) error {
	target := b.Path()
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	// Record the hash before the rename so a watcher event racing the
	// rename already sees it as ours.
	b.remember(data)

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Close implements Backend. FileBackend holds no open handles.
func (b *FileBackend) Close() error { return nil }

func (b *FileBackend) remember(data []byte) {
	sum := sha256.Sum256(data)
	b.mu.Lock()
	b.lastHash = sum
	b.mu.Unlock()
}

// isOwn reports whether data matches the last document seen by this backend.
func (b *FileBackend) isOwn(data []byte) bool {
	sum := sha256.Sum256(data)
	b.mu.Lock()
	defer b.mu.Unlock()
	return sum == b.lastHash
}
