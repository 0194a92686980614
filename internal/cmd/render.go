package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Iron-Ham/maintenance/internal/task"
	"github.com/Iron-Ham/maintenance/internal/util"
	"github.com/Iron-Ham/maintenance/internal/view"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const (
	defaultWidth  = 100
	minTitleWidth = 12
)

type column struct {
	title string
	width int
}

// terminalWidth returns the width of stdout, or defaultWidth when stdout
// is not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderBoard writes the board as a table sized to width.
func renderBoard(w io.Writer, b view.Board, width int) {
	if len(b.Tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tasks."))
		return
	}

	cols := []column{
		{"ID", 20}, {"TITLE", 0}, {"ZONE", 14}, {"STATUS", 16}, {"DUE", 12}, {"AVG", 6}, {"TIMER", 8},
	}
	fixed := 0
	for _, c := range cols {
		fixed += c.width + 1
	}
	cols[1].width = max(width-fixed, minTitleWidth)

	var header []string
	for _, c := range cols {
		header = append(header, util.PadANSI(c.title, c.width))
	}
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(strings.Join(header, " "), " ")))

	for _, v := range b.Tasks {
		cells := []string{
			v.ID,
			v.Title,
			v.Zone,
			statusCell(v),
			dueCell(v),
			avgCell(v),
			timerCell(v),
		}
		var line []string
		for i, c := range cols {
			line = append(line, util.PadANSI(cells[i], c.width))
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(line, " "), " "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, mutedStyle.Render(countsLine(b.Counts)))
}

func countsLine(c view.Counts) string {
	parts := []string{fmt.Sprintf("%d tasks", c.Total)}
	if c.Running > 0 {
		parts = append(parts, fmt.Sprintf("%d running", c.Running))
	}
	if c.Paused > 0 {
		parts = append(parts, fmt.Sprintf("%d paused", c.Paused))
	}
	if c.Overdue > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue", c.Overdue))
	}
	return strings.Join(parts, ", ")
}

func statusCell(v view.TaskView) string {
	switch v.Task.Status {
	case task.StatusRunning:
		return runningStyle.Render("running " + v.Task.LockedBy)
	case task.StatusPaused:
		return pausedStyle.Render("paused " + v.Task.LockedBy)
	default:
		return mutedStyle.Render("idle")
	}
}

func dueCell(v view.TaskView) string {
	s := util.FormatDaysLeft(v.DaysLeft)
	if v.Overdue {
		return overdueStyle.Render(s)
	}
	return s
}

func avgCell(v view.TaskView) string {
	if v.Task.N == 0 {
		return mutedStyle.Render(fmt.Sprintf("~%dm", v.Task.AvgMin))
	}
	return fmt.Sprintf("%dm", v.Task.AvgMin)
}

func timerCell(v view.TaskView) string {
	if v.TotalSec == 0 {
		return ""
	}
	return util.FormatSeconds(v.TotalSec)
}

// renderTask writes one task as labelled lines.
func renderTask(w io.Writer, v view.TaskView) {
	t := v.Task
	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(util.PadANSI(label+":", 13)), value)
	}

	fmt.Fprintln(w, headerStyle.Render(t.Title))
	row("ID", t.ID)
	row("Zone", t.Zone)
	row("Status", statusCell(v))
	if t.FreqDays > 0 {
		row("Every", fmt.Sprintf("%d days", t.FreqDays))
	} else {
		row("Every", "one-off")
	}
	row("Due", optionalTime(t.Due)+" ("+dueCell(v)+")")
	last := optionalTime(t.LastDone)
	if t.LastDoneBy != "" {
		last += " by " + t.LastDoneBy
	}
	row("Last done", last)
	row("Estimate", fmt.Sprintf("%d min", t.EstMin))
	row("Average", fmt.Sprintf("%s over %d completions", avgCell(v), t.N))
	if v.TotalSec > 0 {
		row("Timer", util.FormatSeconds(v.TotalSec))
	}
	if t.Notes != "" {
		row("Notes", t.Notes)
	}
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// confirm writes a one-line result for a mutating command.
func confirm(w io.Writer, verb string, t task.Task) {
	fmt.Fprintf(w, "%s %s (%s)\n", verb, t.ID, t.Title)
}
