package logging

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleLog = `{"time":"2026-03-01T10:00:02Z","level":"INFO","msg":"task paused","component":"tracker","task_id":"mop","owner":"alice","accum_sec":120}
not json at all
{"time":"2026-03-01T10:00:00Z","level":"INFO","msg":"task started","component":"tracker","task_id":"mop","owner":"alice"}
{"time":"2026-03-01T10:00:05Z","level":"WARN","msg":"skipped malformed record","component":"store","key":"broken"}

{"time":"2026-03-01T10:00:09Z","level":"DEBUG","msg":"start rejected","component":"tracker","task_id":"mop","owner":"bob"}
`

func writeSampleLog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(sampleLog), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestReadLogs(t *testing.T) {
	entries, err := ReadLogs(writeSampleLog(t))
	if err != nil {
		t.Fatalf("ReadLogs() error = %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	if entries[0].Message != "task started" {
		t.Errorf("entries not sorted by time: first = %q", entries[0].Message)
	}
	paused := entries[1]
	if paused.TaskID != "mop" || paused.Owner != "alice" || paused.Component != "tracker" {
		t.Errorf("named fields not lifted: %+v", paused)
	}
	if paused.Attrs["accum_sec"] != float64(120) {
		t.Errorf("accum_sec attr = %v, want 120", paused.Attrs["accum_sec"])
	}
	if _, ok := paused.Attrs["msg"]; ok {
		t.Error("standard field leaked into attrs")
	}
}

func TestReadLogs_Missing(t *testing.T) {
	if _, err := ReadLogs(t.TempDir()); err == nil {
		t.Error("expected error for missing log file")
	}
}

func TestFilterLogs(t *testing.T) {
	entries, err := ReadLogs(writeSampleLog(t))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter LogFilter
		want   int
	}{
		{name: "empty filter", filter: LogFilter{}, want: 4},
		{name: "level info and above", filter: LogFilter{Level: "info"}, want: 3},
		{name: "level warn", filter: LogFilter{Level: LevelWarn}, want: 1},
		{name: "task", filter: LogFilter{TaskID: "mop"}, want: 3},
		{name: "owner", filter: LogFilter{Owner: "bob"}, want: 1},
		{name: "component", filter: LogFilter{Component: "store"}, want: 1},
		{name: "since", filter: LogFilter{Since: time.Date(2026, 3, 1, 10, 0, 3, 0, time.UTC)}, want: 2},
		{name: "message", filter: LogFilter{MessageContains: "task"}, want: 2},
		{name: "combined", filter: LogFilter{TaskID: "mop", Level: LevelInfo}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterLogs(entries, tt.filter); len(got) != tt.want {
				t.Errorf("FilterLogs() returned %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestWriteLogs(t *testing.T) {
	entries, err := ReadLogs(writeSampleLog(t))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteLogs(&buf, entries, "json"); err != nil {
			t.Fatalf("WriteLogs() error = %v", err)
		}
		var decoded []LogEntry
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not a JSON array: %v", err)
		}
		if len(decoded) != len(entries) {
			t.Errorf("decoded %d entries, want %d", len(decoded), len(entries))
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteLogs(&buf, entries, "text"); err != nil {
			t.Fatalf("WriteLogs() error = %v", err)
		}
		first := strings.Split(buf.String(), "\n")[0]
		want := "[2026-03-01 10:00:00.000] INFO - task started (component=tracker, task=mop, owner=alice)"
		if first != want {
			t.Errorf("first line = %q, want %q", first, want)
		}
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteLogs(&buf, entries, "CSV"); err != nil {
			t.Fatalf("WriteLogs() error = %v", err)
		}
		rows, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(rows) != len(entries)+1 {
			t.Errorf("got %d rows, want %d", len(rows), len(entries)+1)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if err := WriteLogs(&bytes.Buffer{}, entries, "xml"); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}
