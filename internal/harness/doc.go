// Package harness provides scenario-based conformance testing for the
// version history engine.
//
// Scenarios are YAML files describing a sequence of history operations
// against one main document (and any branches it forks), followed by
// assertions on the resulting state. Each scenario runs against a fresh
// database with deterministic ids and timestamps, so the final history
// snapshot is reproducible byte for byte and can be compared against a
// golden file.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	steps:
//	  - op: save
//	    document: main
//	    content: "line 1"
//	    message: "first draft"
//	  - op: branch
//	    document: main
//	    from_version: 1
//	    name: experiment
//	  - op: save
//	    document: branch-1
//	    content: "divergent"
//	  - op: merge
//	    document: main
//	    branch: branch-1
//	    strategy: theirs
//	assertions:
//	  - type: history_count
//	    document: main
//	    count: 2
//	  - type: latest_content
//	    document: main
//	    content: "divergent"
//
// Documents are addressed by label: "main" is the scenario's document,
// "branch-1", "branch-2", ... are branches in creation order. Versions
// are addressed by their number within their document.
//
// # Assertion Types
//
//   - history_count: the document's active version count equals count
//   - latest_content: the document's latest active version carries content
//   - diff: diffing version_1 against version_2 yields the given
//     added/removed/unchanged line lists
//   - event_count: the document's stream holds exactly count events
//
// # Golden Snapshots
//
// RunWithGolden serializes the final history (every version of every
// document, deleted ones included, plus each stream's event types) as
// canonical JSON and compares it against testdata/golden/{name}.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
