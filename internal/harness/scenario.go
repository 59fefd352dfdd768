package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a sequence of history
// operations followed by assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps contains the operations to execute, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one history operation. Op selects which fields apply.
type Step struct {
	// Op is the operation: save, restore, delete, branch, or merge.
	Op string `yaml:"op"`

	// Document is the target document label: "main" or "branch-N".
	// For branch this is the source document; for merge the main side.
	Document string `yaml:"document"`

	// Content and Message apply to save.
	Content string `yaml:"content,omitempty"`
	Message string `yaml:"message,omitempty"`

	// Auto marks a save as auto-saved.
	Auto bool `yaml:"auto,omitempty"`

	// Version addresses a version by number within Document
	// (restore, delete).
	Version int64 `yaml:"version,omitempty"`

	// FromVersion and Name apply to branch.
	FromVersion int64  `yaml:"from_version,omitempty"`
	Name        string `yaml:"name,omitempty"`

	// Branch and Strategy apply to merge.
	Branch   string `yaml:"branch,omitempty"`
	Strategy string `yaml:"strategy,omitempty"`

	// ExpectRefused marks a restore or merge that must report a
	// structured failure instead of succeeding.
	ExpectRefused bool `yaml:"expect_refused,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of history_count, latest_content, diff, event_count.
	Type string `yaml:"type"`

	// Document is the target document label.
	Document string `yaml:"document,omitempty"`

	// Count is the expected count (history_count, event_count).
	Count int64 `yaml:"count,omitempty"`

	// Content is the expected content (latest_content).
	Content string `yaml:"content,omitempty"`

	// Version1 and Version2 address the diffed versions by number (diff).
	Version1 int64 `yaml:"version_1,omitempty"`
	Version2 int64 `yaml:"version_2,omitempty"`

	// Added, Removed, and Unchanged are the expected line lists (diff).
	Added     []string `yaml:"added,omitempty"`
	Removed   []string `yaml:"removed,omitempty"`
	Unchanged []string `yaml:"unchanged,omitempty"`
}

// Assertion type constants.
const (
	AssertHistoryCount  = "history_count"
	AssertLatestContent = "latest_content"
	AssertDiff          = "diff"
	AssertEventCount    = "event_count"
)

// Step op constants.
const (
	OpSave    = "save"
	OpRestore = "restore"
	OpDelete  = "delete"
	OpBranch  = "branch"
	OpMerge   = "merge"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertHistoryCount, AssertLatestContent, AssertDiff, AssertEventCount:
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
		if a.Document == "" {
			return fmt.Errorf("assertions[%d]: document is required", i)
		}
		if a.Type == AssertDiff && (a.Version1 < 1 || a.Version2 < 1) {
			return fmt.Errorf("assertions[%d]: diff requires version_1 and version_2", i)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Document == "" {
		return fmt.Errorf("document is required")
	}
	switch step.Op {
	case OpSave:
	case OpRestore, OpDelete:
		if step.Version < 1 {
			return fmt.Errorf("%s requires version >= 1", step.Op)
		}
	case OpBranch:
		if step.FromVersion < 1 {
			return fmt.Errorf("branch requires from_version >= 1")
		}
		if step.Name == "" {
			return fmt.Errorf("branch requires name")
		}
	case OpMerge:
		if step.Branch == "" {
			return fmt.Errorf("merge requires branch")
		}
		if step.Strategy == "" {
			return fmt.Errorf("merge requires strategy")
		}
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}
