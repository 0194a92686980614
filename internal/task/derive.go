package task

import (
	"math"
	"sort"
	"time"
)

const secondsPerDay = 86400

// DaysLeft returns the whole days until due, rounded toward negative
// infinity so that anything past due is negative. ok is false when the
// task has no due date.
func DaysLeft(due *time.Time, now time.Time) (days int, ok bool) {
	if due == nil {
		return 0, false
	}
	return int(math.Floor(due.Sub(now).Seconds() / secondsPerDay)), true
}

// RunningSeconds returns the whole seconds of the current run, or 0 when
// the task is not running. A clock that moved backwards yields 0.
func RunningSeconds(t Task, now time.Time) int {
	if !t.IsRunning() {
		return 0
	}
	return elapsedSeconds(*t.StartedAt, now)
}

// TotalElapsedSeconds returns banked plus running time, floored at zero.
func TotalElapsedSeconds(t Task, now time.Time) int {
	return max(0, t.AccumSec+RunningSeconds(t, now))
}

// ElapsedSince returns whole seconds between start and now, clamped at zero.
func ElapsedSince(start, now time.Time) int {
	return elapsedSeconds(start, now)
}

func elapsedSeconds(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// Less orders tasks for listings: tasks with a due date first in ascending
// order, undated tasks last, ties broken by title and then id.
func Less(a, b Task) bool {
	switch {
	case a.Due == nil && b.Due != nil:
		return false
	case a.Due != nil && b.Due == nil:
		return true
	case a.Due != nil && b.Due != nil && !a.Due.Equal(*b.Due):
		return a.Due.Before(*b.Due)
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.ID < b.ID
}

// Sort orders tasks in place using Less.
func Sort(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return Less(tasks[i], tasks[j])
	})
}
