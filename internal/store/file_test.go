package store

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/maintenance/internal/errors"
)

func TestFileBackend_LoadMissing(t *testing.T) {
	b, err := NewFileBackend(t.TempDir(), "chores")
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	if _, err := b.Load(context.Background()); !errors.Is(err, errors.ErrNoDocument) {
		t.Errorf("Load error = %v, want ErrNoDocument", err)
	}
}

func TestFileBackend_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir, "chores")
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}

	doc := []byte(`{"version":1,"tasks":{}}`)
	if err := b.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "chores.json")); err != nil {
		t.Errorf("document file should exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "chores.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file should not remain after save")
	}

	got, err := b.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(doc) {
		t.Errorf("Load = %s, want %s", got, doc)
	}
}

func TestFileBackend_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	if _, err := NewFileBackend(dir, "chores"); err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestFileBackend_CancelledContext(t *testing.T) {
	b, _ := NewFileBackend(t.TempDir(), "chores")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Save(ctx, []byte("{}")); err == nil {
		t.Error("Save should fail with a cancelled context")
	}
}

func TestFileBackend_StoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b, _ := NewFileBackend(dir, "chores")
	s := New(b)
	if err := s.Update(context.Background(), func(tx *Tx) error {
		tx.Put(newTask("dishes"))
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	b2, _ := NewFileBackend(dir, "chores")
	s2 := New(b2)
	if _, err := s2.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s2.Get("dishes"); !ok {
		t.Error("second store should see dishes")
	}
}

func TestFileBackend_WatchReportsExternalWrites(t *testing.T) {
	dir := t.TempDir()
	b, _ := NewFileBackend(dir, "chores")
	if err := b.Save(context.Background(), []byte(`{"tasks":{}}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	changes := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- b.Watch(ctx, func() { changes <- struct{}{} })
	}()
	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	// Our own write is ignored.
	if err := b.Save(context.Background(), []byte(`{"tasks":{"a":{}}}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	select {
	case <-changes:
		t.Fatal("own write should not be reported")
	case <-time.After(400 * time.Millisecond):
	}

	// A write by another process is reported.
	other, _ := NewFileBackend(dir, "chores")
	if err := other.Save(context.Background(), []byte(`{"tasks":{"b":{}}}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("external write was not reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not return after cancel")
	}
}

func TestFileLock_LockUnlock(t *testing.T) {
	dir := t.TempDir()
	fl := NewFileLock(dir, "chores")

	if err := fl.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "chores.lock")); err != nil {
		t.Errorf("lock file should exist: %v", err)
	}
	if err := fl.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestFileLock_UnlockWithoutLock(t *testing.T) {
	fl := NewFileLock(t.TempDir(), "chores")
	if err := fl.Unlock(); err != nil {
		t.Fatalf("Unlock without Lock should not error: %v", err)
	}
}

func TestFileLock_TryLockAfterRelease(t *testing.T) {
	dir := t.TempDir()
	fl := NewFileLock(dir, "chores")

	acquired, err := fl.TryLock()
	if err != nil || !acquired {
		t.Fatalf("TryLock = %v, %v", acquired, err)
	}
	if err := fl.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	fl2 := NewFileLock(dir, "chores")
	acquired, err = fl2.TryLock()
	if err != nil || !acquired {
		t.Errorf("TryLock after release = %v, %v", acquired, err)
	}
	_ = fl2.Unlock()
}

func TestFileLock_SharedLocks(t *testing.T) {
	dir := t.TempDir()
	r1 := NewFileLock(dir, "chores")
	r2 := NewFileLock(dir, "chores")

	if err := r1.RLock(); err != nil {
		t.Fatalf("RLock: %v", err)
	}
	if err := r2.RLock(); err != nil {
		t.Fatalf("second RLock: %v", err)
	}

	w := NewFileLock(dir, "chores")
	acquired, err := w.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if acquired {
		t.Error("exclusive lock should not be granted while shared locks are held")
		_ = w.Unlock()
	}

	_ = r1.Unlock()
	_ = r2.Unlock()
}

// incrementConcurrently bumps a decimal counter document through Modify
// from one goroutine per backend and returns the final count.
func incrementConcurrently(t *testing.T, backends []Backend, rounds int) int {
	t.Helper()
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				err := b.Modify(ctx, func(current []byte) ([]byte, error) {
					n := 0
					if current != nil {
						var err error
						if n, err = strconv.Atoi(string(current)); err != nil {
							return nil, err
						}
					}
					return []byte(strconv.Itoa(n + 1)), nil
				})
				if err != nil {
					t.Errorf("Modify: %v", err)
					return
				}
			}
		}(b)
	}
	wg.Wait()

	got, err := backends[0].Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n, err := strconv.Atoi(string(got))
	if err != nil {
		t.Fatalf("counter document = %q", got)
	}
	return n
}

func TestFileBackend_ModifyExcludesOtherWriters(t *testing.T) {
	dir := t.TempDir()

	// Separate backends open separate lock descriptors, just like separate
	// processes sharing the data directory.
	var backends []Backend
	for i := 0; i < 4; i++ {
		b, err := NewFileBackend(dir, "chores")
		if err != nil {
			t.Fatalf("NewFileBackend: %v", err)
		}
		backends = append(backends, b)
	}

	if got := incrementConcurrently(t, backends, 25); got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestFileBackend_ModifyWithoutChangeWritesNothing(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir, "chores")
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}

	var seen []byte
	err = b.Modify(context.Background(), func(current []byte) ([]byte, error) {
		seen = current
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Modify: %v", err)
	}
	if seen != nil {
		t.Errorf("current = %q, want nil for a missing document", seen)
	}
	if _, err := os.Stat(b.Path()); !os.IsNotExist(err) {
		t.Error("a nil replacement should not create the document")
	}
}
