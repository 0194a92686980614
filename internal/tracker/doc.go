// Package tracker implements the maintenance task state machine.
//
// A task is idle, running or paused. Starting locks it to one owner;
// only that owner can pause, resume or complete it until a completion
// releases the lock. Time spent running accumulates across pauses and is
// converted to minutes on completion, where it feeds a rolling average.
// Recurring tasks are rescheduled from the completion time.
//
// Each operation runs inside one store.Update critical section. Operations
// that change nothing (starting a running task, pausing an idle one,
// deleting an unknown id, an empty edit) neither persist nor publish.
// Events are published after the critical section is released, so
// subscribers may read back through Get and All.
package tracker
