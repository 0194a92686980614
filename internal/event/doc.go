// Package event is the change notification hub for the maintenance tracker.
//
// The tracker publishes one event after every committed mutation; the HTTP
// change stream, the file watcher and tests subscribe to them. Observers that
// only need to know that something changed use [Bus.OnChange] and re-read
// state through the tracker on their own schedule.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [TaskEvent]: Events that concern one task and expose its id via TaskRef()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Types
//
//   - task.added, task.updated, task.deleted
//   - task.started, task.paused, task.completed
//   - store.reloaded
//
// Timestamps come from the caller, normally the tracker's clock, so tests
// with a manual clock see deterministic values.
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publishing goroutine, after the tracker has released
// the store lock, so a handler may call back into the tracker. A panicking
// handler is recovered and logged and does not prevent later handlers from
// running.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	bus.Subscribe(event.TypeTaskCompleted, func(e event.Event) {
//	    done := e.(event.TaskCompletedEvent)
//	    log.Printf("%s finished %s", done.Owner, done.TaskID)
//	})
//
//	stop := bus.OnChange(func() { refresh() })
//	defer stop()
package event
