package store

import (
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/maintenance/internal/task"
)

func TestEncodeDecode_PausedTaskRoundTrip(t *testing.T) {
	done := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	due := done.AddDate(0, 0, 7)
	in := task.Task{
		ID:       "vacuum",
		Title:    "Vacuum",
		Zone:     "Living room",
		Notes:    "under the sofa",
		FreqDays: 7,
		Due:      &due,
		LastDone: &done,
		Status:   task.StatusPaused,
		LockedBy: "alice",
		AccumSec: 120,
		EstMin:   20,
		AvgMin:   18,
		N:        3,
	}

	data, err := EncodeDocument(map[string]task.Task{in.ID: in})
	if err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	if !strings.Contains(string(data), `"version": 1`) {
		t.Errorf("document should carry version: %s", data)
	}
	if !strings.Contains(string(data), `"due": "2024-03-08T09:30:00Z"`) {
		t.Errorf("instants should serialize with Z offset: %s", data)
	}

	out, report, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if report.Loaded != 1 || len(report.Issues) != 0 {
		t.Fatalf("report = %+v, want 1 loaded and no issues", report)
	}

	got := out["vacuum"]
	if got.Status != task.StatusPaused || got.LockedBy != "alice" || got.StartedAt != nil {
		t.Errorf("lock state = %s/%q/%v", got.Status, got.LockedBy, got.StartedAt)
	}
	if got.AccumSec != 120 || got.AvgMin != 18 || got.N != 3 || got.EstMin != 20 {
		t.Errorf("counters = %+v", got)
	}
	if got.Due == nil || !got.Due.Equal(due) || got.LastDone == nil || !got.LastDone.Equal(done) {
		t.Errorf("dates = %v/%v", got.Due, got.LastDone)
	}
	if got.Title != in.Title || got.Zone != in.Zone || got.Notes != in.Notes || got.FreqDays != 7 {
		t.Errorf("descriptive fields = %+v", got)
	}
}

func TestDecodeDocument_Repairs(t *testing.T) {
	tests := []struct {
		name       string
		record     string
		wantStatus task.Status
		wantLock   string
		wantZone   string
		wantAvg    int
	}{
		{
			name:       "running without started_at becomes paused",
			record:     `{"id":"a","title":"A","zone":"Z","status":"running","locked_by":"bob","started_at":null,"accum_sec":60}`,
			wantStatus: task.StatusPaused,
			wantLock:   "bob",
			wantZone:   "Z",
		},
		{
			name:       "unknown status with lock becomes paused",
			record:     `{"id":"a","title":"A","zone":"Z","status":"sleeping","locked_by":"bob"}`,
			wantStatus: task.StatusPaused,
			wantLock:   "bob",
			wantZone:   "Z",
		},
		{
			name:       "unknown status without lock becomes idle",
			record:     `{"id":"a","title":"A","zone":"Z","status":"sleeping"}`,
			wantStatus: task.StatusIdle,
			wantZone:   "Z",
		},
		{
			name:       "idle with lock becomes paused",
			record:     `{"id":"a","title":"A","zone":"Z","status":"idle","locked_by":"bob"}`,
			wantStatus: task.StatusPaused,
			wantLock:   "bob",
			wantZone:   "Z",
		},
		{
			name:       "empty zone defaults",
			record:     `{"id":"a","title":"A","zone":"","status":"idle"}`,
			wantStatus: task.StatusIdle,
			wantZone:   task.DefaultZone,
		},
		{
			name:       "missing avg_min seeds from est_min",
			record:     `{"id":"a","title":"A","zone":"Z","est_min":25}`,
			wantStatus: task.StatusIdle,
			wantZone:   "Z",
			wantAvg:    25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(`{"version":1,"tasks":{"a":` + tt.record + `}}`)
			out, report, err := DecodeDocument(data)
			if err != nil {
				t.Fatalf("DecodeDocument: %v", err)
			}
			got, ok := out["a"]
			if !ok {
				t.Fatalf("record skipped: %+v", report)
			}
			if got.Status != tt.wantStatus || got.LockedBy != tt.wantLock || got.Zone != tt.wantZone {
				t.Errorf("got %s/%q/%q, want %s/%q/%q", got.Status, got.LockedBy, got.Zone, tt.wantStatus, tt.wantLock, tt.wantZone)
			}
			if got.AvgMin != tt.wantAvg {
				t.Errorf("AvgMin = %d, want %d", got.AvgMin, tt.wantAvg)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("repaired task should be valid: %v", err)
			}
		})
	}
}

func TestDecodeDocument_SkipsMalformedRecords(t *testing.T) {
	data := []byte(`{
		"tasks": {
			"good": {"title": "Good", "zone": "Z"},
			"null": null,
			"list": [1, 2],
			"badtype": {"id": "badtype", "freq_days": "weekly"},
			"noid": {"id": "", "title": "x"}
		}
	}`)

	out, report, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("loaded %d tasks, want 2: %+v", len(out), out)
	}
	if _, ok := out["good"]; !ok {
		t.Error("record without id should take its key")
	}
	// An empty id in the record falls back to the key as well.
	if _, ok := out["noid"]; !ok {
		t.Error("record with empty id should take its key")
	}
	if report.Skipped() != 3 {
		t.Errorf("Skipped() = %d, want 3: %+v", report.Skipped(), report.Issues)
	}
}

func TestDecodeDocument_BadTimestampDropped(t *testing.T) {
	data := []byte(`{"tasks":{"a":{"title":"A","zone":"Z","last_done":"yesterday","due":"2024-05-01T10:00:00"}}}`)
	out, report, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	got := out["a"]
	if got.LastDone != nil {
		t.Errorf("unparseable last_done should be dropped, got %v", got.LastDone)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if got.Due == nil || !got.Due.Equal(want) {
		t.Errorf("naive due should read as UTC, got %v", got.Due)
	}
	if len(report.Issues) == 0 || report.Skipped() != 0 {
		t.Errorf("expected a non-skipping warning, got %+v", report.Issues)
	}
}

func TestDecodeDocument_Errors(t *testing.T) {
	if _, _, err := DecodeDocument([]byte(`[1,2,3]`)); err == nil {
		t.Error("non-object document should fail")
	}
	if _, _, err := DecodeDocument([]byte(`not json`)); err == nil {
		t.Error("invalid JSON should fail")
	}

	out, report, err := DecodeDocument([]byte(`{"tasks": 5}`))
	if err != nil {
		t.Fatalf("non-object tasks should not fail: %v", err)
	}
	if len(out) != 0 || report.Skipped() != 1 {
		t.Errorf("got %d tasks, report %+v", len(out), report)
	}

	out, _, err = DecodeDocument([]byte(`{}`))
	if err != nil || len(out) != 0 {
		t.Errorf("empty document: %v, %d tasks", err, len(out))
	}
}
