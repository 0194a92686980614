// Package internal contains integration tests that verify the store,
// tracker, event bus and command layers work together over a real
// document on disk.
package internal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/maintenance/internal/clock"
	"github.com/Iron-Ham/maintenance/internal/command"
	"github.com/Iron-Ham/maintenance/internal/config"
	"github.com/Iron-Ham/maintenance/internal/errors"
	"github.com/Iron-Ham/maintenance/internal/event"
	"github.com/Iron-Ham/maintenance/internal/store"
	"github.com/Iron-Ham/maintenance/internal/task"
	"github.com/Iron-Ham/maintenance/internal/tracker"
)

var epoch = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

type stack struct {
	clock   *clock.Manual
	store   *store.Store
	bus     *event.Bus
	tracker *tracker.Tracker
	svc     *command.Service
}

// openStack wires a file-backed service rooted at dir.
func openStack(t *testing.T, dir string, clk *clock.Manual) *stack {
	t.Helper()

	backend, err := store.NewFileBackend(dir, "maintenance_db_test")
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	s := store.New(backend)
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	bus := event.NewBus()
	tr := tracker.New(s, bus, tracker.WithClock(clk))
	return &stack{
		clock:   clk,
		store:   s,
		bus:     bus,
		tracker: tr,
		svc:     command.NewService(tr, config.Default()),
	}
}

func intPtr(v int) *int { return &v }

// TestLifecycleSurvivesRestart drives a task through a full cycle and
// verifies a second process sees the same state.
func TestLifecycleSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clk := clock.NewManual(epoch)
	s := openStack(t, dir, clk)

	var mu sync.Mutex
	var types []string
	s.bus.SubscribeAll(func(e event.Event) {
		mu.Lock()
		types = append(types, e.EventType())
		mu.Unlock()
	})

	if _, err := s.svc.Add(ctx, command.AddRequest{
		TaskID:   "clean_gutters",
		Title:    "Clean gutters",
		Zone:     "Exterior",
		FreqDays: 90,
		EstMin:   intPtr(60),
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := s.svc.Start(ctx, command.StartRequest{TaskID: "clean_gutters", User: "alice"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clk.Advance(20 * time.Minute)
	if _, err := s.svc.Pause(ctx, command.PauseRequest{TaskID: "clean_gutters", User: "alice"}); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	clk.Advance(time.Hour)
	if _, err := s.svc.Start(ctx, command.StartRequest{TaskID: "clean_gutters", User: "alice"}); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	clk.Advance(20 * time.Minute)
	done, err := s.svc.Complete(ctx, command.CompleteRequest{TaskID: "clean_gutters", User: "alice"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// 40 minutes of work folded into an average seeded at 60.
	if done.AvgMin != 40 || done.N != 1 {
		t.Errorf("avg/n = %d/%d, want 40/1", done.AvgMin, done.N)
	}
	wantDue := clk.Now().AddDate(0, 0, 90)
	if done.Due == nil || !done.Due.Equal(wantDue) {
		t.Errorf("Due = %v, want %v", done.Due, wantDue)
	}

	mu.Lock()
	want := []string{
		event.TypeTaskAdded,
		event.TypeTaskStarted,
		event.TypeTaskPaused,
		event.TypeTaskStarted,
		event.TypeTaskCompleted,
	}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, types[i], want[i])
		}
	}
	mu.Unlock()

	reopened := openStack(t, dir, clock.NewManual(clk.Now()))
	got, err := reopened.tracker.Get("clean_gutters")
	if err != nil {
		t.Fatalf("Get after restart: %v", err)
	}
	if got.Status != task.StatusIdle || got.LockedBy != "" || got.LastDoneBy != "alice" {
		t.Errorf("restarted task = %+v", got)
	}
	if got.AvgMin != 40 || got.N != 1 || got.Due == nil || !got.Due.Equal(wantDue) {
		t.Errorf("restarted stats = avg %d n %d due %v", got.AvgMin, got.N, got.Due)
	}
}

// TestRunningTimerSurvivesRestart verifies a running task keeps its owner
// and start instant across processes, so time keeps accruing.
func TestRunningTimerSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clk := clock.NewManual(epoch)
	s := openStack(t, dir, clk)

	if _, err := s.svc.CreateFromSummary(ctx, command.CreateFromSummaryRequest{
		Summary:  "[Yard] Mow lawn",
		FreqDays: 7,
	}); err != nil {
		t.Fatalf("CreateFromSummary: %v", err)
	}
	if _, err := s.svc.Start(ctx, command.StartRequest{TaskID: "yard_mow_lawn", User: "bob"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clk.Advance(25 * time.Minute)
	reopened := openStack(t, dir, clk)

	if _, err := reopened.svc.Start(ctx, command.StartRequest{TaskID: "yard_mow_lawn", User: "alice"}); !errors.Is(err, errors.ErrTaskLocked) {
		t.Fatalf("Start by another user = %v, want ErrTaskLocked", err)
	}

	done, err := reopened.svc.Complete(ctx, command.CompleteRequest{TaskID: "yard_mow_lawn", User: "bob"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.N != 1 || done.AvgMin != 25 {
		t.Errorf("avg/n = %d/%d, want 25/1", done.AvgMin, done.N)
	}
}

// TestConcurrentStart verifies that exactly one of many racing users
// acquires the lock.
func TestConcurrentStart(t *testing.T) {
	ctx := context.Background()
	s := openStack(t, t.TempDir(), clock.NewManual(epoch))

	if _, err := s.svc.Add(ctx, command.AddRequest{
		TaskID: "vacuum",
		Title:  "Vacuum",
		Zone:   "Living room",
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	users := []string{"alice", "bob", "carol", "dave", "erin", "frank"}
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		locked  int
	)
	for _, u := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := s.svc.Start(ctx, command.StartRequest{TaskID: "vacuum", User: user})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, user)
			case errors.Is(err, errors.ErrTaskLocked):
				locked++
			default:
				t.Errorf("Start(%s) unexpected error: %v", user, err)
			}
		}(u)
	}
	wg.Wait()

	if len(winners) != 1 || locked != len(users)-1 {
		t.Fatalf("winners = %v, locked = %d", winners, locked)
	}
	got, err := s.tracker.Get("vacuum")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LockedBy != winners[0] || got.Status != task.StatusRunning {
		t.Errorf("task = %+v, want running for %s", got, winners[0])
	}
}

// TestReloadPicksUpExternalWrites verifies Reload replaces the cached set
// with what another process saved.
func TestReloadPicksUpExternalWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clk := clock.NewManual(epoch)
	first := openStack(t, dir, clk)
	second := openStack(t, dir, clk)

	var reloaded []event.Event
	first.bus.Subscribe(event.TypeStoreReloaded, func(e event.Event) {
		reloaded = append(reloaded, e)
	})

	if _, err := second.svc.Add(ctx, command.AddRequest{
		TaskID: "dust_shelves",
		Title:  "Dust shelves",
		Zone:   "Office",
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := first.tracker.Get("dust_shelves"); err == nil {
		t.Fatal("first process should not see the task before reloading")
	}

	report, err := first.tracker.Reload(ctx)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if report.Loaded != 1 {
		t.Errorf("Loaded = %d, want 1", report.Loaded)
	}
	if _, err := first.tracker.Get("dust_shelves"); err != nil {
		t.Errorf("Get after reload: %v", err)
	}
	if len(reloaded) != 1 {
		t.Errorf("store.reloaded events = %d, want 1", len(reloaded))
	}
}

// TestTwoProcessesShareOneDocument verifies that stacks opened on the same
// data directory see each other's commits: a task locked by one cannot be
// started by the other, and a stale stack's write keeps the other's tasks.
func TestTwoProcessesShareOneDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clk := clock.NewManual(epoch)
	first := openStack(t, dir, clk)
	second := openStack(t, dir, clk)

	if _, err := first.svc.Add(ctx, command.AddRequest{
		TaskID: "vacuum",
		Title:  "Vacuum",
		Zone:   "Living room",
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := first.svc.Start(ctx, command.StartRequest{TaskID: "vacuum", User: "alice"}); err != nil {
		t.Fatalf("Start(alice): %v", err)
	}
	_, err := second.svc.Start(ctx, command.StartRequest{TaskID: "vacuum", User: "bob"})
	if !errors.Is(err, errors.ErrTaskLocked) {
		t.Fatalf("Start(bob) = %v, want ErrTaskLocked", err)
	}

	if _, err := first.svc.Add(ctx, command.AddRequest{TaskID: "dust", Title: "Dust", Zone: "Office"}); err != nil {
		t.Fatalf("Add(dust): %v", err)
	}
	if _, err := second.svc.Add(ctx, command.AddRequest{TaskID: "mop", Title: "Mop", Zone: "Kitchen"}); err != nil {
		t.Fatalf("Add(mop): %v", err)
	}
	if _, err := second.svc.Add(ctx, command.AddRequest{TaskID: "dust", Title: "Dust", Zone: "Office"}); !errors.Is(err, errors.ErrTaskExists) {
		t.Errorf("Add(dust) from second = %v, want ErrTaskExists", err)
	}

	fresh := openStack(t, dir, clk)
	for _, id := range []string{"vacuum", "dust", "mop"} {
		if _, err := fresh.tracker.Get(id); err != nil {
			t.Errorf("Get(%s): %v", id, err)
		}
	}
	got, err := fresh.tracker.Get("vacuum")
	if err != nil {
		t.Fatalf("Get(vacuum): %v", err)
	}
	if got.LockedBy != "alice" || got.Status != task.StatusRunning {
		t.Errorf("vacuum = %+v, want running for alice", got)
	}
}
