package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogEntry is one parsed JSON log line.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	Component string         `json:"component,omitempty"`
	TaskID    string         `json:"task_id,omitempty"`
	Owner     string         `json:"owner,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// LogFilter selects log entries. Zero-valued fields do not filter; set
// fields are combined with AND.
type LogFilter struct {
	// Level keeps entries at or above this level (DEBUG < INFO < WARN < ERROR).
	Level string
	// Since keeps entries at or after this time.
	Since time.Time
	// TaskID keeps entries about one task.
	TaskID string
	// Owner keeps entries for one acting owner.
	Owner string
	// Component keeps entries from one package, e.g. "tracker".
	Component string
	// MessageContains keeps entries whose message contains the substring.
	MessageContains string
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// named fields are lifted out of Attrs
var standardFields = map[string]bool{
	"time":      true,
	"level":     true,
	"msg":       true,
	"component": true,
	"task_id":   true,
	"owner":     true,
}

// ReadLogs parses the log file in logDir, skipping lines that are not JSON.
// Entries are returned in timestamp order.
func ReadLogs(logDir string) ([]LogEntry, error) {
	f, err := os.Open(filepath.Join(logDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no log file in %s: %w", logDir, err)
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parseLogs(f)
}

func parseLogs(r io.Reader) ([]LogEntry, error) {
	var entries []LogEntry
	scanner := bufio.NewScanner(r)

	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseLogEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func parseLogEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}

	entry := LogEntry{
		Level:     str("level"),
		Message:   str("msg"),
		Component: str("component"),
		TaskID:    str("task_id"),
		Owner:     str("owner"),
		Attrs:     make(map[string]any),
	}
	if ts, err := time.Parse(time.RFC3339Nano, str("time")); err == nil {
		entry.Timestamp = ts
	}
	for k, v := range raw {
		if !standardFields[k] {
			entry.Attrs[k] = v
		}
	}
	return entry, nil
}

// FilterLogs returns the entries matching filter.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	if filter == (LogFilter{}) {
		return entries
	}

	var out []LogEntry
	for _, e := range entries {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f LogFilter) matches(e LogEntry) bool {
	if f.Level != "" {
		want, okWant := levelOrder[strings.ToUpper(f.Level)]
		got, okGot := levelOrder[e.Level]
		if okWant && okGot && got < want {
			return false
		}
	}
	switch {
	case !f.Since.IsZero() && e.Timestamp.Before(f.Since):
		return false
	case f.TaskID != "" && e.TaskID != f.TaskID:
		return false
	case f.Owner != "" && e.Owner != f.Owner:
		return false
	case f.Component != "" && e.Component != f.Component:
		return false
	case f.MessageContains != "" && !strings.Contains(e.Message, f.MessageContains):
		return false
	}
	return true
}

// WriteLogs renders entries to w as "json", "text" or "csv".
func WriteLogs(w io.Writer, entries []LogEntry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text", "":
		return writeText(w, entries)
	case "csv":
		return writeCSV(w, entries)
	default:
		return fmt.Errorf("unsupported log format: %s (supported: json, text, csv)", format)
	}
}

// writeText renders "[TIMESTAMP] LEVEL - MESSAGE (context) {attrs}" lines.
func writeText(w io.Writer, entries []LogEntry) error {
	for _, e := range entries {
		parts := []string{
			fmt.Sprintf("[%s]", e.Timestamp.Format("2006-01-02 15:04:05.000")),
			e.Level, "-", e.Message,
		}

		var ctx []string
		for _, kv := range [][2]string{{"component", e.Component}, {"task", e.TaskID}, {"owner", e.Owner}} {
			if kv[1] != "" {
				ctx = append(ctx, kv[0]+"="+kv[1])
			}
		}
		if len(ctx) > 0 {
			parts = append(parts, "("+strings.Join(ctx, ", ")+")")
		}
		if len(e.Attrs) > 0 {
			attrs, _ := json.Marshal(e.Attrs)
			parts = append(parts, string(attrs))
		}

		if _, err := io.WriteString(w, strings.Join(parts, " ")+"\n"); err != nil {
			return fmt.Errorf("failed to write text entry: %w", err)
		}
	}
	return nil
}

func writeCSV(w io.Writer, entries []LogEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"timestamp", "level", "message", "component", "task_id", "owner", "attrs"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		attrs := ""
		if len(e.Attrs) > 0 {
			if b, err := json.Marshal(e.Attrs); err == nil {
				attrs = string(b)
			}
		}
		record := []string{
			e.Timestamp.Format(time.RFC3339Nano),
			e.Level, e.Message, e.Component, e.TaskID, e.Owner, attrs,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
