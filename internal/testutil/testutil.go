// Package testutil provides fixtures shared by maintenance tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/maintenance/internal/clock"
	"github.com/Iron-Ham/maintenance/internal/event"
	"github.com/Iron-Ham/maintenance/internal/store"
	"github.com/Iron-Ham/maintenance/internal/task"
	"github.com/Iron-Ham/maintenance/internal/tracker"
)

// Epoch is the instant every Harness clock starts at.
var Epoch = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

// Harness wires an in-memory store, a bus and a tracker driven by a
// manual clock.
type Harness struct {
	Clock   *clock.Manual
	Backend *store.MemoryBackend
	Store   *store.Store
	Bus     *event.Bus
	Tracker *tracker.Tracker
	Events  *EventRecorder
}

// NewHarness creates a Harness with an empty store.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	h := &Harness{
		Clock:   clock.NewManual(Epoch),
		Backend: store.NewMemoryBackend(),
		Bus:     event.NewBus(),
		Events:  &EventRecorder{},
	}
	h.Store = store.New(h.Backend)
	h.Tracker = tracker.New(h.Store, h.Bus, tracker.WithClock(h.Clock))
	h.Bus.SubscribeAll(h.Events.Record)
	return h
}

// MustAdd adds an idle task or fails the test.
func (h *Harness) MustAdd(t *testing.T, id, title, zone string, freqDays int) task.Task {
	t.Helper()

	tk, err := h.Tracker.Add(context.Background(), tracker.AddParams{
		ID:       id,
		Title:    title,
		Zone:     zone,
		FreqDays: freqDays,
		EstMin:   15,
	})
	if err != nil {
		t.Fatalf("failed to add task %s: %v", id, err)
	}
	return tk
}

// MustStart starts a task for owner or fails the test.
func (h *Harness) MustStart(t *testing.T, id, owner string) task.Task {
	t.Helper()

	tk, err := h.Tracker.Start(context.Background(), id, owner)
	if err != nil {
		t.Fatalf("failed to start task %s: %v", id, err)
	}
	return tk
}

// EventRecorder collects published events.
type EventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

// Record is an event.Handler.
func (r *EventRecorder) Record(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Count returns the number of recorded events.
func (r *EventRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Types returns the recorded event types in order.
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

// Last returns the most recent event, or nil.
func (r *EventRecorder) Last() event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", name, err)
	}
	return path
}
