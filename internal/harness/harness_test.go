package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no scenario files found")

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			RunWithGolden(t, scenario)
		})
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/branch_and_merge_theirs.yaml")
	require.NoError(t, err)
	ctx := context.Background()

	first, err := Run(scenario)
	require.NoError(t, err)
	defer first.Close()
	second, err := Run(scenario)
	require.NoError(t, err)
	defer second.Close()

	snap1, err := first.Snapshot(ctx)
	require.NoError(t, err)
	snap2, err := second.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(snap1), string(snap2))
}

func TestRun_FailsOnUnknownDocumentLabel(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_label",
		Description: "step references a document that does not exist",
		Steps: []Step{
			{Op: OpSave, Document: "branch-9", Content: "x"},
		},
		Assertions: []Assertion{
			{Type: AssertHistoryCount, Document: "main", Count: 0},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document label")
}

func TestCheckAssertions_ReportsMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "assertion expects the wrong count",
		Steps: []Step{
			{Op: OpSave, Document: "main", Content: "x"},
		},
		Assertions: []Assertion{
			{Type: AssertHistoryCount, Document: "main", Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	defer result.Close()

	err = result.CheckAssertions(context.Background())
	require.Error(t, err)
	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, AssertHistoryCount, assertErr.Type)
}
