package command

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/Iron-Ham/maintenance/internal/errors"
	"github.com/Iron-Ham/maintenance/internal/task"
)

// NullableTime is a request field that distinguishes an absent value from
// an explicit null. Set is true when the field was supplied; a supplied
// null leaves Value nil and means "clear".
type NullableTime struct {
	Set   bool
	Value *string
}

// SetTo returns a NullableTime holding s.
func SetTo(s string) NullableTime {
	return NullableTime{Set: true, Value: &s}
}

// Null returns a NullableTime that clears the field.
func Null() NullableTime {
	return NullableTime{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n NullableTime) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// AddRequest creates a task.
type AddRequest struct {
	TaskID   string `json:"task_id"`
	Title    string `json:"title"`
	Zone     string `json:"zone"`
	FreqDays int    `json:"freq_days"`
	EstMin   *int   `json:"est_min,omitempty"`
	Notes    string `json:"notes"`
	LastDone string `json:"last_done,omitempty"`
	Due      string `json:"due,omitempty"`
}

func (r AddRequest) Validate() error {
	if err := validateID(r.TaskID); err != nil {
		return err
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.NewValidationError("title is required").WithField("title")
	}
	if strings.TrimSpace(r.Zone) == "" {
		return errors.NewValidationError("zone is required").WithField("zone")
	}
	if err := nonNegative("freq_days", r.FreqDays); err != nil {
		return err
	}
	if r.EstMin != nil {
		if err := nonNegative("est_min", *r.EstMin); err != nil {
			return err
		}
	}
	if _, err := parseOptional("last_done", r.LastDone); err != nil {
		return err
	}
	if _, err := parseOptional("due", r.Due); err != nil {
		return err
	}
	return nil
}

// UpdateRequest edits the supplied fields of a task. Nil pointers and
// unset NullableTimes are left alone.
type UpdateRequest struct {
	TaskID   string       `json:"task_id"`
	Title    *string      `json:"title,omitempty"`
	Zone     *string      `json:"zone,omitempty"`
	FreqDays *int         `json:"freq_days,omitempty"`
	EstMin   *int         `json:"est_min,omitempty"`
	Notes    *string      `json:"notes,omitempty"`
	LastDone NullableTime `json:"last_done"`
	Due      NullableTime `json:"due"`
}

func (r UpdateRequest) Validate() error {
	if err := validateID(r.TaskID); err != nil {
		return err
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return errors.NewValidationError("title cannot be empty").WithField("title")
	}
	if r.FreqDays != nil {
		if err := nonNegative("freq_days", *r.FreqDays); err != nil {
			return err
		}
	}
	if r.EstMin != nil {
		if err := nonNegative("est_min", *r.EstMin); err != nil {
			return err
		}
	}
	if r.LastDone.Value != nil {
		if _, err := parseOptional("last_done", *r.LastDone.Value); err != nil {
			return err
		}
	}
	if r.Due.Value != nil {
		if _, err := parseOptional("due", *r.Due.Value); err != nil {
			return err
		}
	}
	return nil
}

// DeleteRequest removes a task.
type DeleteRequest struct {
	TaskID string `json:"task_id"`
}

func (r DeleteRequest) Validate() error {
	return validateID(r.TaskID)
}

// StartRequest starts or resumes a task for User.
type StartRequest struct {
	TaskID string `json:"task_id"`
	User   string `json:"user"`
}

func (r StartRequest) Validate() error {
	return validateOwned(r.TaskID, r.User)
}

// PauseRequest pauses a task held by User.
type PauseRequest struct {
	TaskID string `json:"task_id"`
	User   string `json:"user"`
}

func (r PauseRequest) Validate() error {
	return validateOwned(r.TaskID, r.User)
}

// CompleteRequest completes a task. ManualMinutes, when positive, replaces
// the measured time. SkipSample leaves the rolling average untouched.
type CompleteRequest struct {
	TaskID        string `json:"task_id"`
	User          string `json:"user"`
	ManualMinutes *int   `json:"manual_minutes,omitempty"`
	SkipSample    bool   `json:"skip_sample,omitempty"`
}

func (r CompleteRequest) Validate() error {
	if err := validateOwned(r.TaskID, r.User); err != nil {
		return err
	}
	if r.ManualMinutes == nil {
		return nil
	}
	if err := nonNegative("manual_minutes", *r.ManualMinutes); err != nil {
		return err
	}
	if r.SkipSample && *r.ManualMinutes > 0 {
		return errors.NewValidationError("manual_minutes cannot be combined with skip_sample").WithField("manual_minutes")
	}
	return nil
}

// MarkDoneRequest completes an unheld task without a time sample.
type MarkDoneRequest struct {
	TaskID string `json:"task_id"`
}

func (r MarkDoneRequest) Validate() error {
	return validateID(r.TaskID)
}

// CreateFromSummaryRequest creates a task from a "[Zone] Title" summary.
// TaskID is derived from the summary when empty.
type CreateFromSummaryRequest struct {
	Summary  string `json:"summary"`
	TaskID   string `json:"task_id,omitempty"`
	FreqDays int    `json:"freq_days"`
	EstMin   *int   `json:"est_min,omitempty"`
	Notes    string `json:"notes"`
	Due      string `json:"due,omitempty"`
}

func (r CreateFromSummaryRequest) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return errors.NewValidationError("summary is required").WithField("summary")
	}
	if r.TaskID != "" {
		if err := validateID(r.TaskID); err != nil {
			return err
		}
	}
	if err := nonNegative("freq_days", r.FreqDays); err != nil {
		return err
	}
	if r.EstMin != nil {
		if err := nonNegative("est_min", *r.EstMin); err != nil {
			return err
		}
	}
	_, err := parseOptional("due", r.Due)
	return err
}

func validateID(id string) error {
	if id == "" {
		return errors.NewValidationError("task_id is required").WithField("task_id")
	}
	if !task.IsValidID(id) {
		return errors.NewValidationError("task_id must contain only a-z, 0-9 and _").
			WithField("task_id").WithValue(id)
	}
	return nil
}

func validateOwned(id, user string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if strings.TrimSpace(user) == "" {
		return errors.NewValidationError("user is required").WithField("user")
	}
	return nil
}

func nonNegative(field string, v int) error {
	if v < 0 {
		return errors.NewValidationError("must be zero or greater").WithField(field).WithValue(v)
	}
	return nil
}

// parseOptional parses s as an instant; an empty string yields nil.
func parseOptional(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := task.ParseTime(s)
	if err != nil {
		return nil, errors.NewValidationError("invalid timestamp").
			WithField(field).WithValue(s).WithCause(err)
	}
	return &t, nil
}
