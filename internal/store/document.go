package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Iron-Ham/maintenance/internal/task"
)

// DocumentVersion is written to every saved document.
const DocumentVersion = 1

type document struct {
	Version int                        `json:"version"`
	Tasks   map[string]json.RawMessage `json:"tasks"`
}

// LoadIssue describes one record that was skipped or repaired on load.
type LoadIssue struct {
	Key     string
	Problem string
	Skipped bool
}

// LoadReport summarizes a decode.
type LoadReport struct {
	Loaded int
	Issues []LoadIssue
}

// Skipped returns the number of records dropped.
func (r LoadReport) Skipped() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Skipped {
			n++
		}
	}
	return n
}

// EncodeDocument serializes the task set as one versioned JSON document.
func EncodeDocument(tasks map[string]task.Task) ([]byte, error) {
	doc := document{
		Version: DocumentVersion,
		Tasks:   make(map[string]json.RawMessage, len(tasks)),
	}
	for id, t := range tasks {
		raw, err := json.Marshal(t.ToRecord())
		if err != nil {
			return nil, fmt.Errorf("marshal task %s: %w", id, err)
		}
		doc.Tasks[id] = raw
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// DecodeDocument parses a document into a normalized task set. Only a
// document that is not a JSON object fails; individual records that cannot
// be decoded are skipped and reported, and repairable ones are normalized
// (see task.Task.Normalize). A record without an id takes its map key.
func DecodeDocument(data []byte) (map[string]task.Task, LoadReport, error) {
	var report LoadReport

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, report, fmt.Errorf("decode document: %w", err)
	}

	tasks := make(map[string]task.Task)

	var records map[string]json.RawMessage
	if raw, ok := top["tasks"]; ok {
		if err := json.Unmarshal(raw, &records); err != nil {
			report.Issues = append(report.Issues, LoadIssue{
				Key:     "tasks",
				Problem: "tasks is not an object",
				Skipped: true,
			})
			return tasks, report, nil
		}
	}

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := bytes.TrimSpace(records[key])
		if len(raw) == 0 || raw[0] != '{' {
			report.Issues = append(report.Issues, LoadIssue{Key: key, Problem: "record is not an object", Skipped: true})
			continue
		}

		var rec task.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			report.Issues = append(report.Issues, LoadIssue{Key: key, Problem: err.Error(), Skipped: true})
			continue
		}
		if rec.ID == "" {
			rec.ID = key
		}

		t, warnings := task.FromRecord(rec)
		if t.ID == "" {
			report.Issues = append(report.Issues, LoadIssue{Key: key, Problem: "empty id", Skipped: true})
			continue
		}
		for _, w := range warnings {
			report.Issues = append(report.Issues, LoadIssue{Key: key, Problem: w})
		}
		for _, fix := range t.Normalize() {
			report.Issues = append(report.Issues, LoadIssue{Key: key, Problem: fix})
		}

		tasks[t.ID] = t
	}

	report.Loaded = len(tasks)
	return tasks, report, nil
}
