package view

import (
	"math"
	"sort"
	"time"

	"github.com/Iron-Ham/maintenance/internal/task"
)

// ZoneStats summarizes the tasks of one zone.
type ZoneStats struct {
	Zone        string `json:"zone"`
	Tasks       int    `json:"tasks"`
	Overdue     int    `json:"overdue"`
	Completions int    `json:"completions"`
	// WeeklyMinutes is the expected effort per week: the average duration
	// of each recurring task scaled by how often it repeats.
	WeeklyMinutes int `json:"weekly_minutes"`
}

// Stats summarizes a task set by zone.
type Stats struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Zones       []ZoneStats `json:"zones"`
	Total       ZoneStats   `json:"total"`
}

// NewStats computes per-zone statistics at now. Zones are sorted by name.
func NewStats(tasks []task.Task, now time.Time) Stats {
	byZone := make(map[string]*ZoneStats)
	weekly := make(map[string]float64)
	var total float64

	for _, t := range tasks {
		z := zoneOf(t)
		zs, ok := byZone[z]
		if !ok {
			zs = &ZoneStats{Zone: z}
			byZone[z] = zs
		}
		zs.Tasks++
		zs.Completions += t.N
		if days, ok := task.DaysLeft(t.Due, now); ok && days < 0 {
			zs.Overdue++
		}
		if t.FreqDays > 0 {
			w := float64(t.AvgMin) * 7 / float64(t.FreqDays)
			weekly[z] += w
			total += w
		}
	}

	s := Stats{GeneratedAt: now, Zones: make([]ZoneStats, 0, len(byZone))}
	for z, zs := range byZone {
		zs.WeeklyMinutes = int(math.Round(weekly[z]))
		s.Zones = append(s.Zones, *zs)

		s.Total.Tasks += zs.Tasks
		s.Total.Overdue += zs.Overdue
		s.Total.Completions += zs.Completions
	}
	sort.Slice(s.Zones, func(i, j int) bool { return s.Zones[i].Zone < s.Zones[j].Zone })
	s.Total.Zone = "total"
	s.Total.WeeklyMinutes = int(math.Round(total))
	return s
}
