package store

import (
	"context"
	"sync"

	"github.com/Iron-Ham/maintenance/internal/errors"
)

// MemoryBackend keeps the document in process memory. It is used for the
// "memory" storage backend and in tests, where SetSaveError simulates a
// failing durable store.
type MemoryBackend struct {
	mu      sync.Mutex
	data    []byte
	saveErr error
	saves   int
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// NewMemoryBackendWith creates a MemoryBackend holding data.
func NewMemoryBackendWith(data []byte) *MemoryBackend {
	return &MemoryBackend{data: append([]byte(nil), data...)}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, errors.ErrNoDocument
	}
	return append([]byte(nil), b.data...), nil
}

func (b *MemoryBackend) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.data = append([]byte(nil), data...)
	b.saves++
	return nil
}

// Modify runs fn under the backend's mutex. A save error set with
// SetSaveError fails the write after fn has run.
func (b *MemoryBackend) Modify(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var current []byte
	if b.data != nil {
		current = append([]byte(nil), b.data...)
	}
	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}
	if b.saveErr != nil {
		return b.saveErr
	}
	b.data = append([]byte(nil), next...)
	b.saves++
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

// SetSaveError makes every subsequent Save fail with err. Pass nil to
// restore normal behavior.
func (b *MemoryBackend) SetSaveError(err error) {
	b.mu.Lock()
	b.saveErr = err
	b.mu.Unlock()
}

// Saves returns the number of successful saves.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// Data returns a copy of the stored document, or nil.
func (b *MemoryBackend) Data() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil
	}
	return append([]byte(nil), b.data...)
}
