// Package reference loads reference solutions and resolves task ids to their
// conventional location.
package reference

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a reference file does not exist.
var ErrNotFound = errors.New("reference not found")

// UnknownTaskID is reported when a reference omits task_id.
const UnknownTaskID = "unknown"

// Solution is a reference solution for one task.
type Solution struct {
	TaskID               string   `json:"task_id" yaml:"task_id"`
	Scoring              Scoring  `json:"scoring" yaml:"scoring"`
	Request              Request  `json:"request" yaml:"request"`
	ExpectedDerivedFacts []string `json:"expected_derived_facts" yaml:"expected_derived_facts"`
}

// Scoring carries the declared maximum. Total is nil when not declared.
type Scoring struct {
	Total *int `json:"total,omitempty" yaml:"total,omitempty"`
}

// Request is the request the agent is expected to send. Rules and facts are
// kept opaque; only their counts are compared.
type Request struct {
	Program Program `json:"program" yaml:"program"`
	Facts   []any   `json:"facts" yaml:"facts"`
}

// Program holds the expected rules.
type Program struct {
	Rules []any `json:"rules" yaml:"rules"`
}

// RuleCount is the number of reference rules.
func (s *Solution) RuleCount() int { return len(s.Request.Program.Rules) }

// FactCount is the number of reference input facts.
func (s *Solution) FactCount() int { return len(s.Request.Facts) }

// MaxTotal returns scoring.total, or fallback when the reference omits it.
func (s *Solution) MaxTotal(fallback int) int {
	if s.Scoring.Total == nil {
		return fallback
	}
	return *s.Scoring.Total
}

// ID returns the task id, or "unknown" when absent.
func (s *Solution) ID() string {
	if s.TaskID == "" {
		return UnknownTaskID
	}
	return s.TaskID
}

// Load reads a reference solution. Files ending in .yaml or .yml are decoded
// as YAML, everything else as JSON.
func Load(path string) (*Solution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read reference %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a reference solution; ext selects the format. Keys match
// exactly in both formats: "Task_ID" or "Rules" are treated as absent.
func Parse(data []byte, ext string) (*Solution, error) {
	var sol Solution
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sol); err != nil {
			return nil, fmt.Errorf("failed to parse reference: %w", err)
		}
	default:
		if err := parseJSON(data, &sol); err != nil {
			return nil, fmt.Errorf("failed to parse reference: %w", err)
		}
	}
	return &sol, nil
}

// parseJSON walks the document with exact key lookups. encoding/json folds
// case when matching struct fields, so the struct tags are not used here.
func parseJSON(data []byte, sol *Solution) error {
	var top, scoring, request, program map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	steps := []struct {
		obj map[string]json.RawMessage
		key string
		dst any
	}{
		{top, "task_id", &sol.TaskID},
		{top, "scoring", &scoring},
		{top, "request", &request},
		{top, "expected_derived_facts", &sol.ExpectedDerivedFacts},
	}
	for _, st := range steps {
		if err := decodeKey(st.obj, st.key, st.dst); err != nil {
			return err
		}
	}
	if err := decodeKey(scoring, "total", &sol.Scoring.Total); err != nil {
		return err
	}
	if err := decodeKey(request, "program", &program); err != nil {
		return err
	}
	if err := decodeKey(request, "facts", &sol.Request.Facts); err != nil {
		return err
	}
	return decodeKey(program, "rules", &sol.Request.Program.Rules)
}

func decodeKey(obj map[string]json.RawMessage, key string, dst any) error {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// PathForTask returns the conventional reference path for a task id:
// <dir>/<task>_solution.json.
func PathForTask(dir, task string) string {
	return filepath.Join(dir, task+"_solution.json")
}
