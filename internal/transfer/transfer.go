package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/maintenance/internal/command"
	"github.com/Iron-Ham/maintenance/internal/errors"
	"github.com/Iron-Ham/maintenance/internal/task"
)

// Format is a serialization format for task definitions.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (use yaml or json)", s)
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Definition is the portable description of a task: what a user would
// write by hand, without lock or timer state.
type Definition struct {
	ID       string `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
	Zone     string `yaml:"zone,omitempty" json:"zone,omitempty"`
	FreqDays int    `yaml:"freq_days,omitempty" json:"freq_days,omitempty"`
	EstMin   *int   `yaml:"est_min,omitempty" json:"est_min,omitempty"`
	Notes    string `yaml:"notes,omitempty" json:"notes,omitempty"`
	LastDone string `yaml:"last_done,omitempty" json:"last_done,omitempty"`
	Due      string `yaml:"due,omitempty" json:"due,omitempty"`
}

// ExportedTask is a Definition plus completion statistics.
type ExportedTask struct {
	Definition `yaml:",inline"`
	AvgMin     int    `yaml:"avg_min" json:"avg_min"`
	N          int    `yaml:"n" json:"n"`
	LastDoneBy string `yaml:"last_done_by,omitempty" json:"last_done_by,omitempty"`
}

// Document is the file layout written by Export. Import also accepts a
// bare list of definitions.
type Document struct {
	Version int            `yaml:"version" json:"version"`
	Tasks   []ExportedTask `yaml:"tasks" json:"tasks"`
}

const documentVersion = 1

// Decode reads definitions in format from r.
func Decode(r io.Reader, format Format) ([]Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}

	unmarshal := yaml.Unmarshal
	if format == FormatJSON {
		unmarshal = json.Unmarshal
	}

	var list []Definition
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc struct {
		Tasks []Definition `yaml:"tasks" json:"tasks"`
	}
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s definitions: %w", format, err)
	}
	return doc.Tasks, nil
}

// ImportFailure records a definition that could not be added.
type ImportFailure struct {
	ID  string
	Err error
}

// ImportResult summarizes an Import.
type ImportResult struct {
	Added   []string
	Skipped []string // Ids that already existed
	Failed  []ImportFailure
}

// Import adds every definition whose id is not yet present. Existing ids
// are skipped, invalid definitions are reported in Failed, and the first
// persistence failure aborts the import.
func Import(ctx context.Context, svc *command.Service, defs []Definition) (ImportResult, error) {
	var res ImportResult
	defaultZone := svc.Config().Defaults.Zone

	for _, d := range defs {
		if _, err := svc.Tracker().Get(d.ID); err == nil {
			res.Skipped = append(res.Skipped, d.ID)
			continue
		}

		zone := d.Zone
		if strings.TrimSpace(zone) == "" {
			zone = defaultZone
		}
		_, err := svc.Add(ctx, command.AddRequest{
			TaskID:   d.ID,
			Title:    d.Title,
			Zone:     zone,
			FreqDays: d.FreqDays,
			EstMin:   d.EstMin,
			Notes:    d.Notes,
			LastDone: d.LastDone,
			Due:      d.Due,
		})
		switch {
		case err == nil:
			res.Added = append(res.Added, d.ID)
		case errors.Is(err, errors.ErrTaskExists):
			res.Skipped = append(res.Skipped, d.ID)
		case errors.Is(err, errors.ErrPersist):
			return res, err
		default:
			res.Failed = append(res.Failed, ImportFailure{ID: d.ID, Err: err})
		}
	}
	return res, nil
}

// Export writes tasks, ordered by id, as a Document in format.
func Export(w io.Writer, tasks []task.Task, format Format) error {
	doc := Document{Version: documentVersion, Tasks: make([]ExportedTask, 0, len(tasks))}
	for _, t := range tasks {
		doc.Tasks = append(doc.Tasks, exportTask(t))
	}
	sort.Slice(doc.Tasks, func(i, j int) bool { return doc.Tasks[i].ID < doc.Tasks[j].ID })

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
}

func exportTask(t task.Task) ExportedTask {
	est := t.EstMin
	e := ExportedTask{
		Definition: Definition{
			ID:       t.ID,
			Title:    t.Title,
			Zone:     t.Zone,
			FreqDays: t.FreqDays,
			EstMin:   &est,
			Notes:    t.Notes,
		},
		AvgMin:     t.AvgMin,
		N:          t.N,
		LastDoneBy: t.LastDoneBy,
	}
	if t.LastDone != nil {
		e.LastDone = task.FormatTime(*t.LastDone)
	}
	if t.Due != nil {
		e.Due = task.FormatTime(*t.Due)
	}
	return e
}
