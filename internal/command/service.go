package command

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Iron-Ham/maintenance/internal/config"
	"github.com/Iron-Ham/maintenance/internal/errors"
	"github.com/Iron-Ham/maintenance/internal/task"
	"github.com/Iron-Ham/maintenance/internal/tracker"
)

// Service validates requests from the CLI and HTTP surfaces and applies
// them through a Tracker. Defaults (estimate, owner, zone) and the list of
// known users come from configuration.
type Service struct {
	tracker *tracker.Tracker
	cfg     *config.Config
}

// NewService creates a Service. A nil cfg uses config.Default().
func NewService(tr *tracker.Tracker, cfg *config.Config) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Service{tracker: tr, cfg: cfg}
}

// Tracker returns the underlying tracker for read access.
func (s *Service) Tracker() *tracker.Tracker { return s.tracker }

// Config returns the configuration the service applies defaults from.
func (s *Service) Config() *config.Config { return s.cfg }

// Add validates req and creates an idle task, filling the estimate from
// defaults.est_min when the request leaves it out.
func (s *Service) Add(ctx context.Context, req AddRequest) (task.Task, error) {
	if err := req.Validate(); err != nil {
		return task.Task{}, err
	}
	lastDone, _ := parseOptional("last_done", req.LastDone)
	due, _ := parseOptional("due", req.Due)

	return s.tracker.Add(ctx, tracker.AddParams{
		ID:       req.TaskID,
		Title:    strings.TrimSpace(req.Title),
		Zone:     strings.TrimSpace(req.Zone),
		Notes:    req.Notes,
		FreqDays: req.FreqDays,
		EstMin:   s.estimate(req.EstMin),
		LastDone: lastDone,
		Due:      due,
	})
}

// Update applies the fields req sets to an existing task.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (task.Task, error) {
	if err := req.Validate(); err != nil {
		return task.Task{}, err
	}

	edits := tracker.Edits{
		Title:    trimPtr(req.Title),
		Zone:     trimPtr(req.Zone),
		Notes:    req.Notes,
		FreqDays: req.FreqDays,
		EstMin:   req.EstMin,
		LastDone: timeEdit(req.LastDone),
		Due:      timeEdit(req.Due),
	}
	return s.tracker.Update(ctx, req.TaskID, edits)
}

// Delete removes a task and reports whether it existed.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}
	return s.tracker.Delete(ctx, req.TaskID)
}

// Start starts or resumes a task for req.User, or for defaults.user when
// the request names nobody.
func (s *Service) Start(ctx context.Context, req StartRequest) (task.Task, error) {
	req.User = s.owner(req.User)
	if err := req.Validate(); err != nil {
		return task.Task{}, err
	}
	if err := s.checkUser(req.User); err != nil {
		return task.Task{}, err
	}
	return s.tracker.Start(ctx, req.TaskID, req.User)
}

// Pause stops the timer on a task req.User holds.
func (s *Service) Pause(ctx context.Context, req PauseRequest) (task.Task, error) {
	req.User = s.owner(req.User)
	if err := req.Validate(); err != nil {
		return task.Task{}, err
	}
	if err := s.checkUser(req.User); err != nil {
		return task.Task{}, err
	}
	return s.tracker.Pause(ctx, req.TaskID, req.User)
}

// Complete records a completion by req.User and reschedules the task.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (task.Task, error) {
	req.User = s.owner(req.User)
	if err := req.Validate(); err != nil {
		return task.Task{}, err
	}
	if err := s.checkUser(req.User); err != nil {
		return task.Task{}, err
	}
	if req.SkipSample {
		return s.tracker.CompleteUntimed(ctx, req.TaskID, req.User)
	}
	return s.tracker.Complete(ctx, req.TaskID, req.User, req.ManualMinutes)
}

// MarkDone completes a task nobody holds, without a time sample.
func (s *Service) MarkDone(ctx context.Context, req MarkDoneRequest) (task.Task, error) {
	if err := req.Validate(); err != nil {
		return task.Task{}, err
	}
	return s.tracker.MarkDone(ctx, req.TaskID)
}

// CreateFromSummary adds a task described by "[Zone] Title". Without an
// explicit id one is derived from the summary, falling back to a random
// id when the summary has no usable characters.
func (s *Service) CreateFromSummary(ctx context.Context, req CreateFromSummaryRequest) (task.Task, error) {
	if err := req.Validate(); err != nil {
		return task.Task{}, err
	}

	summary := strings.TrimSpace(req.Summary)
	zone, title := task.ParseSummary(summary, s.defaultZone())
	id := req.TaskID
	if id == "" {
		id = task.DeriveID(summary)
	}
	if id == "" {
		id = FallbackID()
	}
	due, _ := parseOptional("due", req.Due)

	return s.tracker.Add(ctx, tracker.AddParams{
		ID:       id,
		Title:    title,
		Zone:     zone,
		Notes:    req.Notes,
		FreqDays: req.FreqDays,
		EstMin:   s.estimate(req.EstMin),
		Due:      due,
	})
}

// FallbackID returns a random slug id of the form "task_<hex>".
func FallbackID() string {
	return "task_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *Service) estimate(v *int) int {
	if v != nil {
		return *v
	}
	return s.cfg.Defaults.EstMin
}

func (s *Service) owner(user string) string {
	if u := strings.TrimSpace(user); u != "" {
		return u
	}
	return s.cfg.Defaults.User
}

func (s *Service) defaultZone() string {
	if s.cfg.Defaults.Zone != "" {
		return s.cfg.Defaults.Zone
	}
	return task.DefaultZone
}

func (s *Service) checkUser(user string) error {
	if !s.cfg.IsKnownUser(user) {
		return errors.NewValidationError("unknown user").WithField("user").WithValue(user)
	}
	return nil
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func timeEdit(n NullableTime) *tracker.TimeEdit {
	if !n.Set {
		return nil
	}
	if n.Value == nil {
		return tracker.ClearTime()
	}
	t, _ := parseOptional("", *n.Value)
	if t == nil {
		return tracker.ClearTime()
	}
	return tracker.SetTime(*t)
}
