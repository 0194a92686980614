package store

import "context"

// Backend persists the serialized task document. Implementations must make
// Save atomic: a reader sees either the previous document or the new one.
type Backend interface {
	// Name identifies the backend in logs and errors, e.g. "file".
	Name() string
	// Load returns the stored document, or errors.ErrNoDocument when none
	// has been saved yet.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored document.
	Save(ctx context.Context, data []byte) error
	// Modify runs one read-modify-write cycle while excluding every other
	// writer of the same document, including other processes. fn receives
	// the current document, nil when none exists, and returns its
	// replacement. A nil replacement writes nothing. An error from fn
	// aborts the cycle and is returned as is.
	Modify(ctx context.Context, fn func(current []byte) ([]byte, error)) error
	// Close releases any resources held by the backend.
	Close() error
}

// Watcher is implemented by backends that can report writes made by other
// processes. Watch blocks until ctx is done, calling onChange after each
// external modification.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}
