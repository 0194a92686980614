package store

import (
	"context"
	"crypto/sha256"
	"sort"
	"sync"

	"github.com/Iron-Ham/maintenance/internal/errors"
	"github.com/Iron-Ham/maintenance/internal/logging"
	"github.com/Iron-Ham/maintenance/internal/task"
)

// Store owns the authoritative task set and its durable copy.
//
// Reads return copies and never block on I/O for long: mutations are staged
// on a private copy of the set, persisted, and only then published to
// readers. All methods are safe for concurrent use.
type Store struct {
	// writeMu serializes mutations, including their backend write.
	writeMu sync.Mutex
	// mu guards tasks for readers.
	mu    sync.RWMutex
	tasks map[string]task.Task

	// docSum is the digest of the document tasks was last loaded from or
	// saved as. Guarded by writeMu.
	docSum [sha256.Size]byte

	backend Backend
	logger  *logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty Store over backend. Call Load to read existing data.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		tasks:   make(map[string]task.Task),
		docSum:  sha256.Sum256(nil),
		backend: backend,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("store").With("backend", backend.Name())
	return s
}

// Backend returns the durable backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Get returns a copy of the task with id.
func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, false
	}
	return t.Clone(), true
}

// All returns copies of every task, ordered by id.
func (s *Store) All() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Upsert inserts or replaces a task in memory without persisting it.
func (s *Store) Upsert(t task.Task) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.tasks[t.ID] = t.Clone()
	s.mu.Unlock()
}

// Delete removes a task from memory without persisting. It reports
// whether the task existed.
func (s *Store) Delete(id string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// Load replaces the in-memory set with the backend's document. A missing
// document yields an empty set. Skipped and repaired records are logged
// and returned in the report.
func (s *Store) Load(ctx context.Context) (LoadReport, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := s.backend.Load(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrNoDocument) {
			s.replace(make(map[string]task.Task))
			s.docSum = sha256.Sum256(nil)
			s.logger.Info("no stored document, starting empty")
			return LoadReport{}, nil
		}
		return LoadReport{}, errors.Wrapf(err, "load from %s", s.backend.Name())
	}

	tasks, report, err := s.decode(data)
	if err != nil {
		return report, err
	}
	s.replace(tasks)
	s.docSum = sha256.Sum256(data)
	s.logger.Debug("loaded tasks", "count", report.Loaded, "skipped", report.Skipped())
	return report, nil
}

// Save writes the current set to the backend.
func (s *Store) Save(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	snapshot := s.tasks
	s.mu.RUnlock()

	data, err := EncodeDocument(snapshot)
	if err != nil {
		return s.persistError(err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		s.logger.Error("failed to persist tasks", "error", err)
		return s.persistError(err)
	}
	s.docSum = sha256.Sum256(data)
	return nil
}

// Update runs fn against a staged copy of the task set. If fn returns an
// error or stages no change, nothing is written. Otherwise the staged set
// is persisted and, only when that succeeds, becomes visible to readers.
// A failed write leaves the visible set untouched and returns an error
// matching errors.ErrPersist, so the operation can be retried as is.
//
// The whole cycle runs under the backend's writer lock. When another
// process has changed the document since this store last saw it, the
// staged copy starts from that document instead of the cached set.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var (
		base      map[string]task.Task
		baseSum   [sha256.Size]byte
		refreshed bool
		staged    map[string]task.Task
		written   []byte
		fnErr     error
	)
	err := s.backend.Modify(ctx, func(current []byte) ([]byte, error) {
		baseSum = sha256.Sum256(current)
		if baseSum == s.docSum {
			s.mu.RLock()
			base = s.tasks
			s.mu.RUnlock()
		} else {
			tasks, _, err := s.decode(current)
			if err != nil {
				fnErr = errors.Wrap(err, "reload document")
				return nil, fnErr
			}
			s.logger.Debug("document changed by another writer, rebasing", "count", len(tasks))
			base, refreshed = tasks, true
		}

		tx := &Tx{tasks: make(map[string]task.Task, len(base))}
		for id, t := range base {
			tx.tasks[id] = t
		}
		if err := fn(tx); err != nil {
			fnErr = err
			return nil, err
		}
		if !tx.dirty {
			return nil, nil
		}

		data, err := EncodeDocument(tx.tasks)
		if err != nil {
			return nil, err
		}
		staged, written = tx.tasks, data
		return data, nil
	})

	switch {
	case fnErr != nil:
		s.adopt(base, baseSum, refreshed)
		return fnErr
	case err != nil:
		s.logger.Error("failed to persist tasks", "error", err)
		return s.persistError(err)
	case written == nil:
		s.adopt(base, baseSum, refreshed)
		return nil
	}

	s.replace(staged)
	s.docSum = sha256.Sum256(written)
	return nil
}

// persistError describes a failed write, naming the document key when the
// backend has one.
func (s *Store) persistError(cause error) error {
	perr := errors.NewPersistError(s.backend.Name(), cause)
	if k, ok := s.backend.(interface{ Key() string }); ok {
		perr = perr.WithKey(k.Key())
	}
	return perr
}

// adopt makes a document read during Update visible when it differed from
// the cached set.
func (s *Store) adopt(tasks map[string]task.Task, sum [sha256.Size]byte, refreshed bool) {
	if !refreshed {
		return
	}
	s.replace(tasks)
	s.docSum = sum
}

// decode parses a document, treating nil as empty, and logs what had to
// be skipped or repaired.
func (s *Store) decode(data []byte) (map[string]task.Task, LoadReport, error) {
	if data == nil {
		return make(map[string]task.Task), LoadReport{}, nil
	}
	tasks, report, err := DecodeDocument(data)
	if err != nil {
		return nil, report, err
	}
	for _, issue := range report.Issues {
		if issue.Skipped {
			s.logger.Warn("skipped malformed record", "key", issue.Key, "problem", issue.Problem)
		} else {
			s.logger.Warn("repaired record", "task_id", issue.Key, "problem", issue.Problem)
		}
	}
	return tasks, report, nil
}

func (s *Store) replace(tasks map[string]task.Task) {
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Tx is the staged task set handed to an Update callback. Values read from
// a Tx are copies; changes take effect through Put and Delete.
type Tx struct {
	tasks map[string]task.Task
	dirty bool
}

// Get returns a copy of the staged task with id.
func (tx *Tx) Get(id string) (task.Task, bool) {
	t, ok := tx.tasks[id]
	if !ok {
		return task.Task{}, false
	}
	return t.Clone(), true
}

// Has reports whether id exists in the staged set.
func (tx *Tx) Has(id string) bool {
	_, ok := tx.tasks[id]
	return ok
}

// Put stages an insert or full replace.
func (tx *Tx) Put(t task.Task) {
	tx.tasks[t.ID] = t.Clone()
	tx.dirty = true
}

// Delete stages a removal and reports whether the task existed.
func (tx *Tx) Delete(id string) bool {
	if _, ok := tx.tasks[id]; !ok {
		return false
	}
	delete(tx.tasks, id)
	tx.dirty = true
	return true
}

// Len returns the number of staged tasks.
func (tx *Tx) Len() int {
	return len(tx.tasks)
}
