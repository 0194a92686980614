package task

import (
	"testing"
	"time"
)

func TestDaysLeft(t *testing.T) {
	now := *ts("2026-03-10T12:00:00Z")

	tests := []struct {
		name   string
		due    *time.Time
		want   int
		wantOK bool
	}{
		{name: "no due date", due: nil, wantOK: false},
		{name: "exactly now", due: ts("2026-03-10T12:00:00Z"), want: 0, wantOK: true},
		{name: "later today", due: ts("2026-03-10T23:00:00Z"), want: 0, wantOK: true},
		{name: "three days", due: ts("2026-03-13T12:00:00Z"), want: 3, wantOK: true},
		{name: "one hour overdue", due: ts("2026-03-10T11:00:00Z"), want: -1, wantOK: true},
		{name: "two days overdue", due: ts("2026-03-08T12:00:00Z"), want: -2, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DaysLeft(tt.due, now)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("DaysLeft() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTotalElapsedSeconds(t *testing.T) {
	start := ts("2026-03-10T12:00:00Z")

	tests := []struct {
		name string
		task Task
		now  time.Time
		want int
	}{
		{
			name: "idle uses accum only",
			task: Task{Status: StatusIdle, AccumSec: 45},
			now:  start.Add(time.Hour),
			want: 45,
		},
		{
			name: "running adds live time",
			task: Task{Status: StatusRunning, StartedAt: start, AccumSec: 60},
			now:  start.Add(90 * time.Second),
			want: 150,
		},
		{
			name: "partial seconds truncated",
			task: Task{Status: StatusRunning, StartedAt: start},
			now:  start.Add(1500 * time.Millisecond),
			want: 1,
		},
		{
			name: "clock went backwards",
			task: Task{Status: StatusRunning, StartedAt: start, AccumSec: 10},
			now:  start.Add(-time.Minute),
			want: 10,
		},
		{
			name: "paused ignores stale start",
			task: Task{Status: StatusPaused, StartedAt: start, AccumSec: 5},
			now:  start.Add(time.Hour),
			want: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalElapsedSeconds(tt.task, tt.now); got != tt.want {
				t.Errorf("TotalElapsedSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSort(t *testing.T) {
	tasks := []Task{
		{ID: "c", Title: "Undated B"},
		{ID: "b", Title: "Later", Due: ts("2026-04-01T00:00:00Z")},
		{ID: "a", Title: "Undated A"},
		{ID: "e", Title: "Sooner", Due: ts("2026-03-01T00:00:00Z")},
		{ID: "d", Title: "Later", Due: ts("2026-04-01T00:00:00Z")},
	}

	Sort(tasks)

	want := []string{"e", "b", "d", "a", "c"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("order[%d] = %s, want %s (full: %v)", i, tasks[i].ID, id, ids(tasks))
		}
	}
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
