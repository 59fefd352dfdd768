package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/chainvault/internal/domain"
)

// Snapshot serializes the scenario's final history as canonical JSON:
// every document in creation order, every version in number order
// (deleted ones included and flagged), and each stream's event types.
//
// Ids and timestamps are excluded so the snapshot depends only on the
// scenario's semantics; descriptions are included because restore and
// merge generate them.
func (r *Result) Snapshot(ctx context.Context) ([]byte, error) {
	documents := make([]any, 0, len(r.labels))
	for _, label := range r.labels {
		doc, err := r.documentSnapshot(ctx, label)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}

	return domain.MarshalCanonical(map[string]any{
		"scenario_name": r.scenario.Name,
		"documents":     documents,
	})
}

func (r *Result) documentSnapshot(ctx context.Context, label string) (map[string]any, error) {
	recorded := r.versions[label]
	versions := make([]any, 0, len(recorded))
	for n := int64(1); n <= int64(len(recorded)); n++ {
		id, ok := recorded[n]
		if !ok {
			continue
		}
		v, err := r.mgr.GetVersion(ctx, id)
		if err != nil {
			return nil, err
		}
		versions = append(versions, map[string]any{
			"number":      v.VersionNumber,
			"content":     v.Content,
			"description": v.Description,
			"auto_saved":  v.AutoSaved,
			"deleted":     v.Deleted(),
		})
	}

	rows, err := r.events.Events(ctx, r.docs[label])
	if err != nil {
		return nil, err
	}
	events := make([]any, 0, len(rows))
	for _, e := range rows {
		events = append(events, map[string]any{
			"type":    string(e.Type),
			"version": e.Version,
		})
	}

	return map[string]any{
		"label":    label,
		"versions": versions,
		"events":   events,
	}, nil
}

// RunWithGolden executes a scenario, checks its assertions, and compares
// the final history snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s failed: %v", scenario.Name, err)
	}
	defer result.Close()

	ctx := context.Background()
	if err := result.CheckAssertions(ctx); err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	snapshot, err := result.Snapshot(ctx)
	if err != nil {
		t.Fatalf("scenario %s: snapshot failed: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	// Golden files are newline-terminated like any text file.
	g.Assert(t, scenario.Name, append(snapshot, '\n'))
}
