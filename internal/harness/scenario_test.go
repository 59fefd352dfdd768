package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenarioFile(t, `
name: valid
description: "a valid scenario"
steps:
  - op: save
    document: main
    content: "hello"
assertions:
  - type: history_count
    document: main
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "valid", scenario.Name)
	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, OpSave, scenario.Steps[0].Op)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenarioFile(t, `
name: typo
description: "misspelled assertions key"
steps:
  - op: save
    document: main
assertion:
  - type: history_count
    document: main
    count: 1
`)

	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "no name"
steps:
  - op: save
    document: main
assertions:
  - type: history_count
    document: main
    count: 1
`,
			wantErr: "name is required",
		},
		{
			name: "no steps",
			content: `
name: empty
description: "no steps"
steps: []
assertions:
  - type: history_count
    document: main
    count: 1
`,
			wantErr: "steps list is required",
		},
		{
			name: "unknown op",
			content: `
name: bad_op
description: "unsupported operation"
steps:
  - op: rebase
    document: main
assertions:
  - type: history_count
    document: main
    count: 1
`,
			wantErr: "unknown op",
		},
		{
			name: "restore without version",
			content: `
name: bad_restore
description: "restore missing version"
steps:
  - op: restore
    document: main
assertions:
  - type: history_count
    document: main
    count: 1
`,
			wantErr: "restore requires version",
		},
		{
			name: "branch without name",
			content: `
name: bad_branch
description: "branch missing name"
steps:
  - op: branch
    document: main
    from_version: 1
assertions:
  - type: history_count
    document: main
    count: 1
`,
			wantErr: "branch requires name",
		},
		{
			name: "unknown assertion type",
			content: `
name: bad_assert
description: "unsupported assertion"
steps:
  - op: save
    document: main
assertions:
  - type: trace_contains
    document: main
`,
			wantErr: "unknown type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenarioFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
