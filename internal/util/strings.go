// Package util provides formatting helpers for terminal output.
package util

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateANSI truncates a string to maxWidth visual columns, adding "..." if truncated.
// ANSI escape codes and wide characters are measured by their rendered width.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate includes the tail in the final width calculation
	return ansi.Truncate(s, maxWidth, "...")
}

// PadANSI right-pads s with spaces to width visual columns, truncating
// it first when it is wider.
func PadANSI(s string, width int) string {
	s = TruncateANSI(s, width)
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// FormatSeconds renders a duration in seconds as "M:SS" or "H:MM:SS".
// Negative values render as "0:00".
func FormatSeconds(sec int) string {
	if sec < 0 {
		sec = 0
	}
	h, m, s := sec/3600, (sec%3600)/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatDaysLeft renders whole days until due: "today", "in 3d" or
// "2d overdue". A nil value means the task has no due date.
func FormatDaysLeft(days *int) string {
	switch {
	case days == nil:
		return "-"
	case *days == 0:
		return "today"
	case *days > 0:
		return fmt.Sprintf("in %dd", *days)
	default:
		return fmt.Sprintf("%dd overdue", -*days)
	}
}
