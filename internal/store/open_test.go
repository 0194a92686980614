package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Iron-Ham/maintenance/internal/config"
)

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		backend  string
		wantName string
		wantErr  bool
	}{
		{name: "file", backend: config.BackendFile, wantName: "file"},
		{name: "default is file", backend: "", wantName: "file"},
		{name: "sqlite", backend: config.BackendSQLite, wantName: "sqlite"},
		{name: "memory", backend: config.BackendMemory, wantName: "memory"},
		{name: "unknown", backend: "redis", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.Backend = tt.backend
			cfg.Storage.DataDir = dir
			cfg.Storage.SQLitePath = filepath.Join(dir, "maintenance.db")

			b, err := OpenBackend(context.Background(), cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenBackend: %v", err)
			}
			defer b.Close()
			if b.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.wantName)
			}
		})
	}
}

func TestOpenBackend_FileUsesStorageKey(t *testing.T) {
	cfg := config.Default()
	cfg.Name = "Beach House"
	cfg.Storage.DataDir = t.TempDir()

	b, err := OpenBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	fb, ok := b.(*FileBackend)
	if !ok {
		t.Fatalf("backend type = %T, want *FileBackend", b)
	}
	want := filepath.Join(cfg.Storage.DataDir, "maintenance_db_beach_house.json")
	if fb.Path() != want {
		t.Errorf("Path() = %q, want %q", fb.Path(), want)
	}
}
