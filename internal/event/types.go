package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.started", "store.reloaded")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// TaskEvent is implemented by events that concern a single task.
type TaskEvent interface {
	Event
	TaskRef() string
}

// Event type identifiers.
const (
	TypeTaskAdded     = "task.added"
	TypeTaskUpdated   = "task.updated"
	TypeTaskDeleted   = "task.deleted"
	TypeTaskStarted   = "task.started"
	TypeTaskPaused    = "task.paused"
	TypeTaskCompleted = "task.completed"
	TypeStoreReloaded = "store.reloaded"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string, at time.Time) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: at,
	}
}

// taskRef carries the id of the affected task.
type taskRef struct {
	TaskID string
}

func (r taskRef) TaskRef() string { return r.TaskID }

// -----------------------------------------------------------------------------
// Task Lifecycle Events
// -----------------------------------------------------------------------------

// TaskAddedEvent is emitted when a task is created.
type TaskAddedEvent struct {
	baseEvent
	taskRef
	Title string
	Zone  string
}

// NewTaskAddedEvent creates a TaskAddedEvent.
func NewTaskAddedEvent(taskID, title, zone string, at time.Time) TaskAddedEvent {
	return TaskAddedEvent{
		baseEvent: newBaseEvent(TypeTaskAdded, at),
		taskRef:   taskRef{TaskID: taskID},
		Title:     title,
		Zone:      zone,
	}
}

// TaskUpdatedEvent is emitted when descriptive or schedule fields change.
type TaskUpdatedEvent struct {
	baseEvent
	taskRef
	Fields []string // Names of the edited fields
}

// NewTaskUpdatedEvent creates a TaskUpdatedEvent.
func NewTaskUpdatedEvent(taskID string, fields []string, at time.Time) TaskUpdatedEvent {
	return TaskUpdatedEvent{
		baseEvent: newBaseEvent(TypeTaskUpdated, at),
		taskRef:   taskRef{TaskID: taskID},
		Fields:    fields,
	}
}

// TaskDeletedEvent is emitted when a task is removed.
type TaskDeletedEvent struct {
	baseEvent
	taskRef
}

// NewTaskDeletedEvent creates a TaskDeletedEvent.
func NewTaskDeletedEvent(taskID string, at time.Time) TaskDeletedEvent {
	return TaskDeletedEvent{
		baseEvent: newBaseEvent(TypeTaskDeleted, at),
		taskRef:   taskRef{TaskID: taskID},
	}
}

// -----------------------------------------------------------------------------
// Timer Events
// -----------------------------------------------------------------------------

// TaskStartedEvent is emitted when an owner starts or resumes a task.
type TaskStartedEvent struct {
	baseEvent
	taskRef
	Owner   string
	Resumed bool // True when resuming from paused
}

// NewTaskStartedEvent creates a TaskStartedEvent.
func NewTaskStartedEvent(taskID, owner string, resumed bool, at time.Time) TaskStartedEvent {
	return TaskStartedEvent{
		baseEvent: newBaseEvent(TypeTaskStarted, at),
		taskRef:   taskRef{TaskID: taskID},
		Owner:     owner,
		Resumed:   resumed,
	}
}

// TaskPausedEvent is emitted when a running task is paused.
type TaskPausedEvent struct {
	baseEvent
	taskRef
	Owner    string
	AccumSec int // Banked seconds after the pause
}

// NewTaskPausedEvent creates a TaskPausedEvent.
func NewTaskPausedEvent(taskID, owner string, accumSec int, at time.Time) TaskPausedEvent {
	return TaskPausedEvent{
		baseEvent: newBaseEvent(TypeTaskPaused, at),
		taskRef:   taskRef{TaskID: taskID},
		Owner:     owner,
		AccumSec:  accumSec,
	}
}

// TaskCompletedEvent is emitted when a task is completed or marked done.
type TaskCompletedEvent struct {
	baseEvent
	taskRef
	Owner   string     // Empty for mark-done
	Minutes int        // Minutes counted toward the average; 0 when none
	Due     *time.Time // Next due date, nil when the task does not recur
}

// NewTaskCompletedEvent creates a TaskCompletedEvent.
func NewTaskCompletedEvent(taskID, owner string, minutes int, due *time.Time, at time.Time) TaskCompletedEvent {
	return TaskCompletedEvent{
		baseEvent: newBaseEvent(TypeTaskCompleted, at),
		taskRef:   taskRef{TaskID: taskID},
		Owner:     owner,
		Minutes:   minutes,
		Due:       due,
	}
}

// -----------------------------------------------------------------------------
// Store Events
// -----------------------------------------------------------------------------

// StoreReloadedEvent is emitted after the task set is re-read from its backend.
type StoreReloadedEvent struct {
	baseEvent
	Count   int // Tasks loaded
	Skipped int // Malformed records dropped
}

// NewStoreReloadedEvent creates a StoreReloadedEvent.
func NewStoreReloadedEvent(count, skipped int, at time.Time) StoreReloadedEvent {
	return StoreReloadedEvent{
		baseEvent: newBaseEvent(TypeStoreReloaded, at),
		Count:     count,
		Skipped:   skipped,
	}
}
