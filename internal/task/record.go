package task

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the wire format for instants: ISO-8601 in UTC with a
// literal Z and microsecond precision when the fraction is non-zero.
const TimeLayout = "2006-01-02T15:04:05.999999Z07:00"

// naiveLayouts are accepted on read and interpreted as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Record is the serialized form of a Task. Optional fields are pointers so
// that absent and null values are distinguishable from zero values.
type Record struct {
	ID         string  `json:"id" yaml:"id"`
	Title      string  `json:"title" yaml:"title"`
	Zone       string  `json:"zone" yaml:"zone"`
	FreqDays   int     `json:"freq_days" yaml:"freq_days"`
	Due        *string `json:"due" yaml:"due"`
	LastDone   *string `json:"last_done" yaml:"last_done"`
	LastDoneBy *string `json:"last_done_by" yaml:"last_done_by"`
	Notes      string  `json:"notes" yaml:"notes"`
	Status     string  `json:"status" yaml:"status"`
	LockedBy   *string `json:"locked_by" yaml:"locked_by"`
	StartedAt  *string `json:"started_at" yaml:"started_at"`
	AccumSec   int     `json:"accum_sec" yaml:"accum_sec"`
	EstMin     int     `json:"est_min" yaml:"est_min"`
	AvgMin     *int    `json:"avg_min" yaml:"avg_min"`
	N          int     `json:"n" yaml:"n"`
}

// FormatTime renders t in the wire format, normalizing to UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses an ISO-8601 instant. Offsets are honored and converted
// to UTC; timestamps without an offset are read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ToRecord converts a task to its serialized form.
func (t Task) ToRecord() Record {
	avg := t.AvgMin
	return Record{
		ID:         t.ID,
		Title:      t.Title,
		Zone:       t.Zone,
		FreqDays:   t.FreqDays,
		Due:        formatPtr(t.Due),
		LastDone:   formatPtr(t.LastDone),
		LastDoneBy: stringPtr(t.LastDoneBy),
		Notes:      t.Notes,
		Status:     string(t.Status),
		LockedBy:   stringPtr(t.LockedBy),
		StartedAt:  formatPtr(t.StartedAt),
		AccumSec:   t.AccumSec,
		EstMin:     t.EstMin,
		AvgMin:     &avg,
		N:          t.N,
	}
}

// FromRecord converts a serialized record into a Task. Unparseable
// timestamps are dropped rather than failing the record; each one is
// reported in the returned warnings. An absent avg_min defaults to est_min
// and an absent status to idle. The result is not normalized.
func FromRecord(r Record) (Task, []string) {
	var warnings []string
	parse := func(field string, v *string) *time.Time {
		if v == nil || *v == "" {
			return nil
		}
		ts, err := ParseTime(*v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", field, err))
			return nil
		}
		return &ts
	}

	t := Task{
		ID:         r.ID,
		Title:      r.Title,
		Zone:       r.Zone,
		Notes:      r.Notes,
		FreqDays:   r.FreqDays,
		Due:        parse("due", r.Due),
		LastDone:   parse("last_done", r.LastDone),
		LastDoneBy: deref(r.LastDoneBy),
		Status:     Status(r.Status),
		LockedBy:   deref(r.LockedBy),
		StartedAt:  parse("started_at", r.StartedAt),
		AccumSec:   r.AccumSec,
		EstMin:     r.EstMin,
		AvgMin:     r.EstMin,
		N:          r.N,
	}
	if r.AvgMin != nil {
		t.AvgMin = *r.AvgMin
	}
	if t.Status == "" {
		t.Status = StatusIdle
	}
	return t, warnings
}

func formatPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
