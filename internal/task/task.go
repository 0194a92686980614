// Package task defines the maintenance Task record, its status values and
// the pure helpers observers use to derive views from it.
//
// A Task is a plain value. The store hands out copies; only the tracker
// mutates tasks, and it does so on copies it then writes back through the
// store. The invariants a Task must hold after every operation are checked
// by [Task.Validate]:
//
//   - LockedBy is empty exactly when Status is idle
//   - StartedAt is set exactly when Status is running
//   - AccumSec and the counters are never negative
package task

import (
	"fmt"
	"time"

	"github.com/Iron-Ham/maintenance/internal/errors"
)

// DefaultZone is the zone assigned to tasks created without one.
const DefaultZone = "Unsorted"

// Status represents the timer state of a task.
type Status string

const (
	// StatusIdle indicates nobody is working the task.
	StatusIdle Status = "idle"

	// StatusRunning indicates the owner's timer is running.
	StatusRunning Status = "running"

	// StatusPaused indicates the owner paused the timer and still holds the lock.
	StatusPaused Status = "paused"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusPaused:
		return true
	}
	return false
}

// Task is one recurring maintenance chore.
type Task struct {
	// ID is the immutable slug identifying the task.
	ID string
	// Title is the human-readable name.
	Title string
	// Zone groups tasks by area, e.g. "Kitchen".
	Zone string
	// Notes is free text.
	Notes string

	// FreqDays is the recurrence interval in days; 0 means the task does not recur.
	FreqDays int
	// Due is when the task is next due, if scheduled.
	Due *time.Time
	// LastDone is when the task was last completed.
	LastDone *time.Time
	// LastDoneBy is the owner who last completed the task.
	LastDoneBy string

	// Status is the timer state.
	Status Status
	// LockedBy is the owner currently holding the task.
	LockedBy string
	// StartedAt is when the current run began; set only while running.
	StartedAt *time.Time
	// AccumSec is work time banked across pauses, not yet folded into AvgMin.
	AccumSec int

	// EstMin is the user's estimate in minutes.
	EstMin int
	// AvgMin is the rolling average of actual completion durations in minutes.
	AvgMin int
	// N is the number of completions contributing to AvgMin.
	N int
}

// IsLocked reports whether any owner holds the task.
func (t *Task) IsLocked() bool {
	return t.LockedBy != ""
}

// HeldByOther reports whether the task is locked by someone other than owner.
func (t *Task) HeldByOther(owner string) bool {
	return t.LockedBy != "" && t.LockedBy != owner
}

// IsRunning reports whether the timer is running with a known start.
func (t *Task) IsRunning() bool {
	return t.Status == StatusRunning && t.StartedAt != nil
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	t.Due = cloneTime(t.Due)
	t.LastDone = cloneTime(t.LastDone)
	t.StartedAt = cloneTime(t.StartedAt)
	return t
}

// Validate checks the status, lock and timer invariants. It returns an
// error wrapping errors.ErrInvalidState describing the first violation.
func (t *Task) Validate() error {
	switch {
	case t.ID == "":
		return fmt.Errorf("%w: empty id", errors.ErrInvalidState)
	case !t.Status.Valid():
		return fmt.Errorf("%w: task %s has unknown status %q", errors.ErrInvalidState, t.ID, t.Status)
	case (t.LockedBy == "") != (t.Status == StatusIdle):
		return fmt.Errorf("%w: task %s is %s with locked_by=%q", errors.ErrInvalidState, t.ID, t.Status, t.LockedBy)
	case (t.StartedAt != nil) != (t.Status == StatusRunning):
		return fmt.Errorf("%w: task %s is %s with started_at set=%t", errors.ErrInvalidState, t.ID, t.Status, t.StartedAt != nil)
	case t.AccumSec < 0:
		return fmt.Errorf("%w: task %s has negative accum_sec %d", errors.ErrInvalidState, t.ID, t.AccumSec)
	case t.FreqDays < 0 || t.EstMin < 0 || t.AvgMin < 0 || t.N < 0:
		return fmt.Errorf("%w: task %s has a negative counter", errors.ErrInvalidState, t.ID)
	}
	return nil
}

// Normalize repairs a task read from durable storage so that it satisfies
// Validate. It returns a description of every repair made, for logging.
//
// A running task without a start time is downgraded to paused: its timer
// origin is unknown, and resuming it would accrue phantom elapsed time.
func (t *Task) Normalize() []string {
	var fixes []string

	if t.Zone == "" {
		t.Zone = DefaultZone
	}
	if !t.Status.Valid() {
		fixes = append(fixes, fmt.Sprintf("unknown status %q", t.Status))
		if t.LockedBy != "" {
			t.Status = StatusPaused
		} else {
			t.Status = StatusIdle
		}
	}
	if t.Status == StatusRunning && t.StartedAt == nil {
		fixes = append(fixes, "running without started_at, downgraded to paused")
		t.Status = StatusPaused
	}
	if t.Status != StatusIdle && t.LockedBy == "" {
		fixes = append(fixes, fmt.Sprintf("%s without owner, reset to idle", t.Status))
		t.Status = StatusIdle
	}
	if t.Status == StatusIdle && t.LockedBy != "" {
		fixes = append(fixes, "idle with owner, promoted to paused")
		t.Status = StatusPaused
	}
	if t.Status != StatusRunning && t.StartedAt != nil {
		fixes = append(fixes, fmt.Sprintf("%s with started_at, cleared", t.Status))
		t.StartedAt = nil
	}
	if t.AccumSec < 0 {
		fixes = append(fixes, "negative accum_sec, reset to 0")
		t.AccumSec = 0
	}
	for _, c := range []*int{&t.FreqDays, &t.EstMin, &t.AvgMin, &t.N} {
		if *c < 0 {
			fixes = append(fixes, "negative counter, reset to 0")
			*c = 0
		}
	}
	return fixes
}

// ScheduleFrom returns the due date implied by a completion at done:
// done plus FreqDays days for recurring tasks, nil otherwise.
func (t *Task) ScheduleFrom(done *time.Time) *time.Time {
	if done == nil || t.FreqDays <= 0 {
		return nil
	}
	due := done.AddDate(0, 0, t.FreqDays)
	return &due
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
