package tracker

import (
	"context"
	"math"
	"time"

	"github.com/Iron-Ham/maintenance/internal/clock"
	"github.com/Iron-Ham/maintenance/internal/errors"
	"github.com/Iron-Ham/maintenance/internal/event"
	"github.com/Iron-Ham/maintenance/internal/logging"
	"github.com/Iron-Ham/maintenance/internal/store"
	"github.com/Iron-Ham/maintenance/internal/task"
)

// Tracker applies task state transitions to a store and announces them on
// a bus. Every effective transition is persisted before it is announced; a
// transition that fails to persist is not applied and not announced.
type Tracker struct {
	store  *store.Store
	bus    *event.Bus
	clock  clock.Clock
	logger *logging.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source. Defaults to clock.System.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Tracker over s publishing on bus.
func New(s *store.Store, bus *event.Bus, opts ...Option) *Tracker {
	t := &Tracker{
		store:  s,
		bus:    bus,
		clock:  clock.System{},
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithComponent("tracker")
	return t
}

// Store returns the underlying store.
func (tr *Tracker) Store() *store.Store { return tr.store }

// Bus returns the bus transitions are published on.
func (tr *Tracker) Bus() *event.Bus { return tr.bus }

// Now returns the tracker's current time at storage precision.
func (tr *Tracker) Now() time.Time {
	return tr.clock.Now().UTC().Truncate(time.Microsecond)
}

// Get returns a snapshot of the task with id.
func (tr *Tracker) Get(id string) (task.Task, error) {
	t, ok := tr.store.Get(id)
	if !ok {
		return task.Task{}, errors.NewNotFoundError("task", id)
	}
	return t, nil
}

// All returns snapshots of every task, ordered by id.
func (tr *Tracker) All() []task.Task {
	return tr.store.All()
}

// AddParams describes a new task.
type AddParams struct {
	ID       string
	Title    string
	Zone     string
	Notes    string
	FreqDays int
	EstMin   int
	LastDone *time.Time
	// Due overrides the due date derived from LastDone.
	Due *time.Time
}

// Add creates an idle, unlocked task. The average is seeded from EstMin.
func (tr *Tracker) Add(ctx context.Context, p AddParams) (task.Task, error) {
	if p.ID == "" {
		return task.Task{}, errors.NewValidationError("task id is required").WithField("task_id")
	}

	t := task.Task{
		ID:       p.ID,
		Title:    p.Title,
		Zone:     p.Zone,
		Notes:    p.Notes,
		FreqDays: max(0, p.FreqDays),
		EstMin:   max(0, p.EstMin),
		Status:   task.StatusIdle,
		LastDone: utcPtr(p.LastDone),
	}
	if t.Zone == "" {
		t.Zone = task.DefaultZone
	}
	t.AvgMin = t.EstMin
	t.Due = t.ScheduleFrom(t.LastDone)
	if p.Due != nil {
		t.Due = utcPtr(p.Due)
	}

	err := tr.store.Update(ctx, func(tx *store.Tx) error {
		if tx.Has(t.ID) {
			return errors.NewAlreadyExistsError("task", t.ID)
		}
		tx.Put(t)
		return nil
	})
	if err != nil {
		tr.rejected("add", t.ID, "", err)
		return task.Task{}, err
	}

	tr.logger.WithTask(t.ID).Info("task added", "title", t.Title, "zone", t.Zone, "freq_days", t.FreqDays)
	tr.bus.Publish(event.NewTaskAddedEvent(t.ID, t.Title, t.Zone, tr.Now()))
	return t.Clone(), nil
}

// TimeEdit sets or clears a nullable instant. A nil Value clears it.
type TimeEdit struct {
	Value *time.Time
}

// SetTime returns an edit that sets the instant to v.
func SetTime(v time.Time) *TimeEdit {
	return &TimeEdit{Value: &v}
}

// ClearTime returns an edit that clears the instant.
func ClearTime() *TimeEdit {
	return &TimeEdit{}
}

// Edits lists the fields to change in Update. Nil fields are left alone.
type Edits struct {
	Title    *string
	Zone     *string
	Notes    *string
	FreqDays *int
	EstMin   *int
	LastDone *TimeEdit
	Due      *TimeEdit
}

// Empty reports whether no field is supplied.
func (e Edits) Empty() bool {
	return e.Title == nil && e.Zone == nil && e.Notes == nil && e.FreqDays == nil &&
		e.EstMin == nil && e.LastDone == nil && e.Due == nil
}

// Update applies descriptive and schedule edits. Editing LastDone
// recomputes Due from it unless Due is edited too. Lock and timer state are
// never touched. Edits that change nothing are a no-op.
func (tr *Tracker) Update(ctx context.Context, id string, e Edits) (task.Task, error) {
	var (
		result  task.Task
		changed []string
	)
	err := tr.store.Update(ctx, func(tx *store.Tx) error {
		t, ok := tx.Get(id)
		if !ok {
			return errors.NewNotFoundError("task", id)
		}
		changed = applyEdits(&t, e)
		if len(changed) > 0 {
			tx.Put(t)
		}
		result = t
		return nil
	})
	if err != nil {
		tr.rejected("update", id, "", err)
		return task.Task{}, err
	}
	if len(changed) == 0 {
		tr.logger.WithTask(id).Debug("update changed nothing")
		return result, nil
	}

	tr.logger.WithTask(id).Info("task updated", "fields", changed)
	tr.bus.Publish(event.NewTaskUpdatedEvent(id, changed, tr.Now()))
	return result, nil
}

func applyEdits(t *task.Task, e Edits) []string {
	var changed []string
	if e.Title != nil && *e.Title != t.Title {
		t.Title = *e.Title
		changed = append(changed, "title")
	}
	if e.Zone != nil {
		zone := *e.Zone
		if zone == "" {
			zone = task.DefaultZone
		}
		if zone != t.Zone {
			t.Zone = zone
			changed = append(changed, "zone")
		}
	}
	if e.Notes != nil && *e.Notes != t.Notes {
		t.Notes = *e.Notes
		changed = append(changed, "notes")
	}
	if e.FreqDays != nil && max(0, *e.FreqDays) != t.FreqDays {
		t.FreqDays = max(0, *e.FreqDays)
		changed = append(changed, "freq_days")
	}
	if e.EstMin != nil && max(0, *e.EstMin) != t.EstMin {
		t.EstMin = max(0, *e.EstMin)
		// Until the first measured completion the average is the estimate.
		if t.N == 0 {
			t.AvgMin = t.EstMin
		}
		changed = append(changed, "est_min")
	}

	due := t.Due
	if e.LastDone != nil {
		v := utcPtr(e.LastDone.Value)
		if !sameTime(v, t.LastDone) {
			t.LastDone = v
			changed = append(changed, "last_done")
		}
		due = t.ScheduleFrom(t.LastDone)
	}
	if e.Due != nil {
		due = utcPtr(e.Due.Value)
	}
	if !sameTime(due, t.Due) {
		t.Due = due
		changed = append(changed, "due")
	}
	return changed
}

// Delete removes a task regardless of its lock. Deleting an unknown id is a
// no-op and reports false.
func (tr *Tracker) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := tr.store.Update(ctx, func(tx *store.Tx) error {
		removed = tx.Delete(id)
		return nil
	})
	if err != nil {
		tr.rejected("delete", id, "", err)
		return false, err
	}
	if !removed {
		tr.logger.WithTask(id).Debug("delete of unknown task ignored")
		return false, nil
	}

	tr.logger.WithTask(id).Info("task deleted")
	tr.bus.Publish(event.NewTaskDeletedEvent(id, tr.Now()))
	return true, nil
}

// Start locks the task to owner and starts its timer. Starting a task the
// owner is already running is a no-op; a paused task resumes with its
// banked time intact.
func (tr *Tracker) Start(ctx context.Context, id, owner string) (task.Task, error) {
	if owner == "" {
		return task.Task{}, errors.NewValidationError("user is required").WithField("user")
	}

	now := tr.Now()
	var (
		result  task.Task
		applied bool
		resumed bool
	)
	err := tr.store.Update(ctx, func(tx *store.Tx) error {
		t, ok := tx.Get(id)
		if !ok {
			return errors.NewNotFoundError("task", id)
		}
		if t.HeldByOther(owner) {
			return errors.NewLockedError(id, t.LockedBy)
		}
		if t.IsRunning() {
			result = t
			return nil
		}

		resumed = t.Status == task.StatusPaused
		t.LockedBy = owner
		t.Status = task.StatusRunning
		t.StartedAt = &now
		tx.Put(t)
		result, applied = t, true
		return nil
	})
	if err != nil {
		tr.rejected("start", id, owner, err)
		return task.Task{}, err
	}
	if !applied {
		tr.logger.WithTask(id).WithOwner(owner).Debug("task already running")
		return result, nil
	}

	tr.logger.WithTask(id).WithOwner(owner).Info("task started", "resumed", resumed, "accum_sec", result.AccumSec)
	tr.bus.Publish(event.NewTaskStartedEvent(id, owner, resumed, now))
	return result, nil
}

// Pause stops the timer and banks the elapsed time, keeping the lock.
// Pausing an idle or already paused task is a no-op.
func (tr *Tracker) Pause(ctx context.Context, id, owner string) (task.Task, error) {
	if owner == "" {
		return task.Task{}, errors.NewValidationError("user is required").WithField("user")
	}

	now := tr.Now()
	var (
		result  task.Task
		applied bool
	)
	err := tr.store.Update(ctx, func(tx *store.Tx) error {
		t, ok := tx.Get(id)
		if !ok {
			return errors.NewNotFoundError("task", id)
		}
		if t.HeldByOther(owner) {
			return errors.NewLockedError(id, t.LockedBy)
		}
		if t.Status != task.StatusRunning {
			result = t
			return nil
		}

		foldElapsed(&t, now)
		t.Status = task.StatusPaused
		tx.Put(t)
		result, applied = t, true
		return nil
	})
	if err != nil {
		tr.rejected("pause", id, owner, err)
		return task.Task{}, err
	}
	if !applied {
		tr.logger.WithTask(id).WithOwner(owner).Debug("pause ignored", "status", result.Status)
		return result, nil
	}

	tr.logger.WithTask(id).WithOwner(owner).Info("task paused", "accum_sec", result.AccumSec)
	tr.bus.Publish(event.NewTaskPausedEvent(id, owner, result.AccumSec, now))
	return result, nil
}

// Complete finishes a task on behalf of owner. Any running time is banked
// first; the minutes spent are override when it is positive, otherwise the
// banked time rounded to the nearest minute. A positive measurement folds
// into the rolling average. The task is rescheduled from now, unlocked and
// its timer reset. Completing an idle, unlocked task is allowed.
func (tr *Tracker) Complete(ctx context.Context, id, owner string, override *int) (task.Task, error) {
	return tr.complete(ctx, id, owner, override, true)
}

// CompleteUntimed completes a task like Complete but leaves the rolling
// average and sample count alone, for runs whose time is not
// representative.
func (tr *Tracker) CompleteUntimed(ctx context.Context, id, owner string) (task.Task, error) {
	return tr.complete(ctx, id, owner, nil, false)
}

func (tr *Tracker) complete(ctx context.Context, id, owner string, override *int, sample bool) (task.Task, error) {
	if owner == "" {
		return task.Task{}, errors.NewValidationError("user is required").WithField("user")
	}

	now := tr.Now()
	var (
		result task.Task
		spent  int
	)
	err := tr.store.Update(ctx, func(tx *store.Tx) error {
		t, ok := tx.Get(id)
		if !ok {
			return errors.NewNotFoundError("task", id)
		}
		if t.HeldByOther(owner) {
			return errors.NewLockedError(id, t.LockedBy)
		}

		if t.Status == task.StatusRunning {
			foldElapsed(&t, now)
		}
		spent = SpentMinutes(t.AccumSec, override)
		if sample && spent > 0 {
			t.AvgMin, t.N = RollingAverage(t.AvgMin, t.N, spent)
		}
		finish(&t, now)
		t.LastDoneBy = owner
		tx.Put(t)
		result = t
		return nil
	})
	if err != nil {
		tr.rejected("complete", id, owner, err)
		return task.Task{}, err
	}

	tr.logger.WithTask(id).WithOwner(owner).Info("task completed",
		"minutes", spent, "sampled", sample, "avg_min", result.AvgMin, "n", result.N)
	tr.bus.Publish(event.NewTaskCompletedEvent(id, owner, spent, result.Due, now))
	return result, nil
}

// MarkDone completes a task nobody holds, without a time sample. It fails
// with a LockedError while any owner holds the task.
func (tr *Tracker) MarkDone(ctx context.Context, id string) (task.Task, error) {
	now := tr.Now()
	var result task.Task
	err := tr.store.Update(ctx, func(tx *store.Tx) error {
		t, ok := tx.Get(id)
		if !ok {
			return errors.NewNotFoundError("task", id)
		}
		if t.IsLocked() {
			return errors.NewLockedError(id, t.LockedBy)
		}
		finish(&t, now)
		t.LastDoneBy = ""
		tx.Put(t)
		result = t
		return nil
	})
	if err != nil {
		tr.rejected("mark done", id, "", err)
		return task.Task{}, err
	}

	tr.logger.WithTask(id).Info("task marked done")
	tr.bus.Publish(event.NewTaskCompletedEvent(id, "", 0, result.Due, now))
	return result, nil
}

// Reload re-reads the task set from the backend and announces it.
func (tr *Tracker) Reload(ctx context.Context) (store.LoadReport, error) {
	report, err := tr.store.Load(ctx)
	if err != nil {
		tr.logger.Error("reload failed", "error", err)
		return report, errors.Wrap(err, "reload")
	}

	tr.logger.Info("tasks reloaded", "count", report.Loaded, "skipped", report.Skipped())
	tr.bus.Publish(event.NewStoreReloadedEvent(report.Loaded, report.Skipped(), tr.Now()))
	return report, nil
}

// SpentMinutes returns override when it is positive, otherwise accumSec
// rounded to the nearest minute (half away from zero).
func SpentMinutes(accumSec int, override *int) int {
	if override != nil && *override > 0 {
		return *override
	}
	if accumSec <= 0 {
		return 0
	}
	return int(math.Round(float64(accumSec) / 60))
}

// RollingAverage folds one positive sample into an average over n samples,
// rounding to the nearest minute. It returns the new average and count.
func RollingAverage(avg, n, sample int) (int, int) {
	next := n + 1
	return int(math.Round(float64(avg*n+sample) / float64(next))), next
}

// foldElapsed banks the current run into AccumSec and clears StartedAt.
// A running task without a start time banks nothing.
func foldElapsed(t *task.Task, now time.Time) {
	if t.StartedAt != nil {
		t.AccumSec += task.ElapsedSince(*t.StartedAt, now)
	}
	t.StartedAt = nil
}

// finish records a completion at now and resets lock and timer state.
func finish(t *task.Task, now time.Time) {
	done := now
	t.LastDone = &done
	t.Due = t.ScheduleFrom(t.LastDone)
	t.LockedBy = ""
	t.StartedAt = nil
	t.AccumSec = 0
	t.Status = task.StatusIdle
}

func (tr *Tracker) rejected(op, id, owner string, err error) {
	l := tr.logger.With("op", op)
	if id != "" {
		l = l.WithTask(id)
	}
	if owner != "" {
		l = l.WithOwner(owner)
	}
	if errors.Is(err, errors.ErrPersist) {
		l.Error("transition not persisted", "error", err)
		return
	}
	l.Debug("transition rejected", "error", err)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
