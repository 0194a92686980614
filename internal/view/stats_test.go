package view

import (
	"testing"
	"time"

	"github.com/Iron-Ham/maintenance/internal/task"
)

func TestNewStats(t *testing.T) {
	tasks := []task.Task{
		{ID: "mop", Zone: "Kitchen", FreqDays: 7, AvgMin: 20, N: 3, Due: at(-24 * time.Hour)},
		{ID: "oven", Zone: "Kitchen", FreqDays: 14, AvgMin: 30, N: 1},
		{ID: "gutter", Zone: "Outside", FreqDays: 0, AvgMin: 90},
		{ID: "shed", Zone: "", FreqDays: 3, AvgMin: 10},
	}

	s := NewStats(tasks, now)
	if len(s.Zones) != 3 {
		t.Fatalf("zones = %+v", s.Zones)
	}

	want := []ZoneStats{
		{Zone: "Kitchen", Tasks: 2, Overdue: 1, Completions: 4, WeeklyMinutes: 35},
		{Zone: "Outside", Tasks: 1},
		{Zone: task.DefaultZone, Tasks: 1, WeeklyMinutes: 23},
	}
	for i, w := range want {
		if s.Zones[i] != w {
			t.Errorf("zone %d = %+v, want %+v", i, s.Zones[i], w)
		}
	}

	if s.Total.Tasks != 4 || s.Total.Overdue != 1 || s.Total.Completions != 4 || s.Total.WeeklyMinutes != 58 {
		t.Errorf("total = %+v", s.Total)
	}
}

func TestNewStats_Empty(t *testing.T) {
	s := NewStats(nil, now)
	if len(s.Zones) != 0 || s.Total.Tasks != 0 {
		t.Errorf("empty stats = %+v", s)
	}
}
