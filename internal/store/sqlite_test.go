package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Iron-Ham/maintenance/internal/errors"
)

func openTestSQLite(t *testing.T, path, key string) *SQLiteBackend {
	t.Helper()
	b, err := OpenSQLite(context.Background(), path, key)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSQLiteBackend_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "maintenance.db")
	b := openTestSQLite(t, path, "home")
	ctx := context.Background()

	if _, err := b.Load(ctx); !errors.Is(err, errors.ErrNoDocument) {
		t.Fatalf("Load on empty db = %v, want ErrNoDocument", err)
	}

	if err := b.Save(ctx, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := b.Save(ctx, []byte(`{"version":1,"tasks":{}}`)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"version":1,"tasks":{}}` {
		t.Errorf("Load = %s, want the latest document", got)
	}
}

func TestSQLiteBackend_KeysAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maintenance.db")
	home := openTestSQLite(t, path, "home")
	ctx := context.Background()

	if err := home.Save(ctx, []byte(`{"tasks":{"a":{}}}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := home.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cabin := openTestSQLite(t, path, "cabin")
	if _, err := cabin.Load(ctx); !errors.Is(err, errors.ErrNoDocument) {
		t.Errorf("other key should have no document, got %v", err)
	}
}

func TestSQLiteBackend_StoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maintenance.db")
	s := New(openTestSQLite(t, path, "home"))
	ctx := context.Background()

	if err := s.Update(ctx, func(tx *Tx) error {
		tx.Put(newTask("gutters"))
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	s2 := New(openTestSQLite(t, path, "home"))
	if _, err := s2.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s2.Get("gutters"); !ok {
		t.Error("gutters not persisted")
	}
}

func TestSQLiteBackend_ModifyExcludesOtherConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maintenance.db")

	var backends []Backend
	for i := 0; i < 3; i++ {
		backends = append(backends, openTestSQLite(t, path, "home"))
	}

	if got := incrementConcurrently(t, backends, 10); got != 30 {
		t.Errorf("counter = %d, want 30", got)
	}
}
