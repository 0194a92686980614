package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/maintenance/internal/task"
)

// TaskView is a task snapshot plus values derived at a point in time.
type TaskView struct {
	task.Record
	DaysLeft   *int `json:"days_left"`
	RunningSec int  `json:"running_sec"`
	TotalSec   int  `json:"total_sec"`
	Overdue    bool `json:"overdue"`

	Task task.Task `json:"-"`
}

// NewTaskView derives the view of t at now.
func NewTaskView(t task.Task, now time.Time) TaskView {
	v := TaskView{
		Record:     t.ToRecord(),
		RunningSec: task.RunningSeconds(t, now),
		TotalSec:   task.TotalElapsedSeconds(t, now),
		Task:       t,
	}
	if days, ok := task.DaysLeft(t.Due, now); ok {
		v.DaysLeft = &days
		v.Overdue = days < 0
	}
	return v
}

// Counts summarizes a listing.
type Counts struct {
	Total   int `json:"total"`
	Idle    int `json:"idle"`
	Running int `json:"running"`
	Paused  int `json:"paused"`
	Overdue int `json:"overdue"`
}

// Board is the listing observers render: filtered, sorted task views, every
// zone in the store, and counts over the listed tasks.
type Board struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Tasks       []TaskView `json:"tasks"`
	Zones       []string   `json:"zones"`
	Counts      Counts     `json:"counts"`
}

// Filter narrows a board. Zero fields match everything.
type Filter struct {
	// Zone is a case-insensitive glob, e.g. "kitch*" or "{garage,shed}".
	Zone        string
	Status      task.Status
	Owner       string
	OverdueOnly bool
}

// IsZero reports whether the filter matches every task.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Validate checks the zone pattern and status.
func (f Filter) Validate() error {
	_, err := f.compile()
	return err
}

type matcher struct {
	Filter
	zone glob.Glob
}

func (f Filter) compile() (*matcher, error) {
	m := &matcher{Filter: f}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", f.Status)
	}
	if f.Zone != "" {
		g, err := glob.Compile(strings.ToLower(f.Zone))
		if err != nil {
			return nil, fmt.Errorf("invalid zone pattern %q: %w", f.Zone, err)
		}
		m.zone = g
	}
	return m, nil
}

func (m *matcher) match(v TaskView) bool {
	if m.zone != nil && !m.zone.Match(strings.ToLower(zoneOf(v.Task))) {
		return false
	}
	if m.Status != "" && v.Task.Status != m.Status {
		return false
	}
	if m.Owner != "" && v.Task.LockedBy != m.Owner {
		return false
	}
	if m.OverdueOnly && !v.Overdue {
		return false
	}
	return true
}

// NewBoard builds a board from tasks at now. Tasks are sorted with
// task.Less. It fails only for an invalid filter.
func NewBoard(tasks []task.Task, now time.Time, f Filter) (Board, error) {
	m, err := f.compile()
	if err != nil {
		return Board{}, err
	}

	sorted := make([]task.Task, len(tasks))
	copy(sorted, tasks)
	task.Sort(sorted)

	b := Board{
		GeneratedAt: now,
		Tasks:       make([]TaskView, 0, len(sorted)),
		Zones:       Zones(tasks),
	}
	for _, t := range sorted {
		v := NewTaskView(t, now)
		if !m.match(v) {
			continue
		}
		b.Tasks = append(b.Tasks, v)
		b.Counts.add(v)
	}
	return b, nil
}

func (c *Counts) add(v TaskView) {
	c.Total++
	switch v.Task.Status {
	case task.StatusRunning:
		c.Running++
	case task.StatusPaused:
		c.Paused++
	default:
		c.Idle++
	}
	if v.Overdue {
		c.Overdue++
	}
}

// Zones returns the sorted distinct zones of tasks. An empty zone counts
// as task.DefaultZone.
func Zones(tasks []task.Task) []string {
	seen := make(map[string]bool)
	for _, t := range tasks {
		seen[zoneOf(t)] = true
	}
	zones := make([]string, 0, len(seen))
	for z := range seen {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}

func zoneOf(t task.Task) string {
	if t.Zone == "" {
		return task.DefaultZone
	}
	return t.Zone
}
