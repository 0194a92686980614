package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateANSI(t *testing.T) {
	// Create styled strings for testing
	redStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boldStyle := lipgloss.NewStyle().Bold(true)

	tests := []struct {
		name     string
		input    string
		maxWidth int
		check    func(t *testing.T, result string)
	}{
		{
			name:     "short plain string unchanged",
			input:    "hello",
			maxWidth: 10,
			check: func(t *testing.T, result string) {
				if result != "hello" {
					t.Errorf("expected 'hello', got %q", result)
				}
			},
		},
		{
			name:     "plain string truncated",
			input:    "hello world",
			maxWidth: 8,
			check: func(t *testing.T, result string) {
				width := lipgloss.Width(result)
				if width > 8 {
					t.Errorf("result width %d exceeds maxWidth 8", width)
				}
				if result != "hello..." {
					t.Errorf("expected 'hello...', got %q", result)
				}
			},
		},
		{
			name:     "very small maxWidth returns ellipsis",
			input:    "hello",
			maxWidth: 3,
			check: func(t *testing.T, result string) {
				if result != "..." {
					t.Errorf("expected '...', got %q", result)
				}
			},
		},
		{
			name:     "maxWidth of 2 returns ellipsis",
			input:    "hello",
			maxWidth: 2,
			check: func(t *testing.T, result string) {
				if result != "..." {
					t.Errorf("expected '...', got %q", result)
				}
			},
		},
		{
			name:     "styled string preserves style when not truncated",
			input:    redStyle.Render("hi"),
			maxWidth: 10,
			check: func(t *testing.T, result string) {
				if lipgloss.Width(result) > 10 {
					t.Errorf("result width exceeds maxWidth")
				}
				// The styled string should be preserved
				if result != redStyle.Render("hi") {
					t.Errorf("styled string was modified when it shouldn't be")
				}
			},
		},
		{
			name:     "styled string truncated respects width",
			input:    redStyle.Render("hello world"),
			maxWidth: 8,
			check: func(t *testing.T, result string) {
				width := lipgloss.Width(result)
				if width > 8 {
					t.Errorf("result width %d exceeds maxWidth 8", width)
				}
			},
		},
		{
			name:     "bold styled string truncated",
			input:    boldStyle.Render("hello world"),
			maxWidth: 8,
			check: func(t *testing.T, result string) {
				width := lipgloss.Width(result)
				if width > 8 {
					t.Errorf("result width %d exceeds maxWidth 8", width)
				}
			},
		},
		{
			name:     "empty string unchanged",
			input:    "",
			maxWidth: 10,
			check: func(t *testing.T, result string) {
				if result != "" {
					t.Errorf("expected empty string, got %q", result)
				}
			},
		},
		{
			name:     "wide characters counted by visual width",
			input:    "日本語テスト",
			maxWidth: 8,
			check: func(t *testing.T, result string) {
				width := lipgloss.Width(result)
				if width > 8 {
					t.Errorf("result width %d exceeds maxWidth 8", width)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateANSI(tt.input, tt.maxWidth)
			tt.check(t, result)
		})
	}
}

func TestPadANSI(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("ok")

	tests := []struct {
		name  string
		input string
		width int
	}{
		{name: "plain padded", input: "ab", width: 6},
		{name: "styled padded", input: styled, width: 6},
		{name: "long truncated", input: "kitchen floor", width: 8},
		{name: "exact width", input: "abcd", width: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadANSI(tt.input, tt.width)
			if w := lipgloss.Width(got); w != tt.width {
				t.Errorf("PadANSI(%q, %d) width = %d", tt.input, tt.width, w)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		sec  int
		want string
	}{
		{sec: 0, want: "0:00"},
		{sec: 59, want: "0:59"},
		{sec: 600, want: "10:00"},
		{sec: 3725, want: "1:02:05"},
		{sec: -4, want: "0:00"},
	}
	for _, tt := range tests {
		if got := FormatSeconds(tt.sec); got != tt.want {
			t.Errorf("FormatSeconds(%d) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestFormatDaysLeft(t *testing.T) {
	days := func(v int) *int { return &v }

	tests := []struct {
		days *int
		want string
	}{
		{days: nil, want: "-"},
		{days: days(0), want: "today"},
		{days: days(3), want: "in 3d"},
		{days: days(-2), want: "2d overdue"},
	}
	for _, tt := range tests {
		if got := FormatDaysLeft(tt.days); got != tt.want {
			t.Errorf("FormatDaysLeft(%v) = %q, want %q", tt.days, got, tt.want)
		}
	}
}
