package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/chainvault/internal/domain"
	"github.com/roach88/chainvault/internal/eventstore"
	"github.com/roach88/chainvault/internal/history"
	"github.com/roach88/chainvault/internal/store"
	"github.com/roach88/chainvault/internal/testutil"
)

// mainDocumentID is the fixed id of the scenario's main document. Branch
// documents get sequential ids from the harness generator.
const mainDocumentID = "doc-main"

// Result holds the executed scenario's state handles for assertions and
// golden snapshots. Close must be called when done.
type Result struct {
	scenario *Scenario
	store    *store.Store
	events   *eventstore.EventStore
	mgr      *history.Manager

	// labels maps document labels (main, branch-1, ...) to document ids,
	// in creation order.
	labels []string
	docs   map[string]string

	// versions maps (label, version number) to version id, deleted
	// versions included.
	versions map[string]map[int64]string
}

// Close releases the scenario's database.
func (r *Result) Close() error {
	return r.store.Close()
}

// Run executes a scenario against a fresh in-memory database with
// deterministic ids and timestamps.
//
// Version ids are "h-0001", "h-0002", ... in generation order; event ids
// use an independent "e-" sequence so version ids do not depend on how
// many events an operation emits.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open scenario database: %w", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	es := eventstore.New(st,
		eventstore.WithIDGenerator(testutil.NewPrefixGenerator("e")),
		eventstore.WithClock(testutil.NewSteppingClock(start, time.Second)),
		eventstore.WithLogger(log),
	)
	mgr := history.NewManager(st, es,
		history.WithIDGenerator(testutil.NewPrefixGenerator("h")),
		history.WithClock(testutil.NewSteppingClock(start, time.Second)),
		history.WithLogger(log),
	)

	r := &Result{
		scenario: scenario,
		store:    st,
		events:   es,
		mgr:      mgr,
		labels:   []string{"main"},
		docs:     map[string]string{"main": mainDocumentID},
		versions: map[string]map[int64]string{},
	}

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := r.execute(ctx, step); err != nil {
			st.Close()
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
	}
	return r, nil
}

func (r *Result) execute(ctx context.Context, step Step) error {
	docID, ok := r.docs[step.Document]
	if !ok {
		return fmt.Errorf("unknown document label %q", step.Document)
	}

	switch step.Op {
	case OpSave:
		v, err := r.mgr.CreateVersion(ctx, history.CreateVersionParams{
			DocumentID:  docID,
			Content:     step.Content,
			Description: step.Message,
			AutoSaved:   step.Auto,
		})
		if err != nil {
			return err
		}
		r.record(step.Document, v)
		return nil

	case OpRestore:
		versionID, err := r.versionID(step.Document, step.Version)
		if err != nil {
			return err
		}
		res, err := r.mgr.RestoreVersion(ctx, docID, versionID, "", step.Message)
		if err != nil {
			return err
		}
		if step.ExpectRefused {
			if res.Success {
				return fmt.Errorf("restore succeeded but expect_refused is set")
			}
			return nil
		}
		if !res.Success {
			return fmt.Errorf("restore refused: %v", res.Conflicts)
		}
		return r.recordByID(ctx, step.Document, res.NewVersionID)

	case OpDelete:
		versionID, err := r.versionID(step.Document, step.Version)
		if err != nil {
			return err
		}
		deleted, err := r.mgr.DeleteVersion(ctx, versionID, "")
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("version %d of %s was not deleted", step.Version, step.Document)
		}
		return nil

	case OpBranch:
		baseID, err := r.versionID(step.Document, step.FromVersion)
		if err != nil {
			return err
		}
		v, err := r.mgr.CreateBranch(ctx, docID, baseID, step.Name, "")
		if err != nil {
			return err
		}
		label := fmt.Sprintf("branch-%d", len(r.labels))
		r.labels = append(r.labels, label)
		r.docs[label] = v.DocumentID
		r.record(label, v)
		return nil

	case OpMerge:
		branchID, ok := r.docs[step.Branch]
		if !ok {
			return fmt.Errorf("unknown branch label %q", step.Branch)
		}
		res, err := r.mgr.MergeBranch(ctx, docID, branchID, "", domain.MergeStrategy(step.Strategy))
		if err != nil {
			return err
		}
		if step.ExpectRefused {
			if res.Success {
				return fmt.Errorf("merge succeeded but expect_refused is set")
			}
			return nil
		}
		if !res.Success {
			return fmt.Errorf("merge refused: nothing to merge")
		}
		return r.recordByID(ctx, step.Document, res.NewVersionID)

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// record indexes a created version under its document label.
func (r *Result) record(label string, v *domain.Version) {
	if r.versions[label] == nil {
		r.versions[label] = map[int64]string{}
	}
	r.versions[label][v.VersionNumber] = v.ID
}

// recordByID fetches a version by id and indexes it.
func (r *Result) recordByID(ctx context.Context, label, versionID string) error {
	v, err := r.mgr.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	r.record(label, v)
	return nil
}

// versionID resolves (label, number) to a version id.
func (r *Result) versionID(label string, number int64) (string, error) {
	id, ok := r.versions[label][number]
	if !ok {
		return "", fmt.Errorf("document %s has no recorded version %d", label, number)
	}
	return id, nil
}

// CheckAssertions evaluates every assertion and returns the first
// failure.
func (r *Result) CheckAssertions(ctx context.Context) error {
	for i, a := range r.scenario.Assertions {
		if err := r.check(ctx, a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func (r *Result) check(ctx context.Context, a Assertion) error {
	docID, ok := r.docs[a.Document]
	if !ok {
		return fmt.Errorf("unknown document label %q", a.Document)
	}

	switch a.Type {
	case AssertHistoryCount:
		h, err := r.mgr.GetVersionHistory(ctx, docID, 1, 0)
		if err != nil {
			return err
		}
		if h.Total != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s has %d active version(s)", a.Document, a.Count),
				Actual:   fmt.Sprintf("%d active version(s)", h.Total),
			}
		}
		return nil

	case AssertLatestContent:
		latest, err := r.mgr.GetLatestVersion(ctx, docID)
		if err != nil {
			return err
		}
		if latest.Content != a.Content {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s latest content %q", a.Document, a.Content),
				Actual:   fmt.Sprintf("%q", latest.Content),
			}
		}
		return nil

	case AssertDiff:
		id1, err := r.versionID(a.Document, a.Version1)
		if err != nil {
			return err
		}
		id2, err := r.versionID(a.Document, a.Version2)
		if err != nil {
			return err
		}
		d, err := r.mgr.GetVersionDiff(ctx, id1, id2)
		if err != nil {
			return err
		}
		if !equalLines(d.Added, a.Added) || !equalLines(d.Removed, a.Removed) ||
			(a.Unchanged != nil && !equalLines(d.Unchanged, a.Unchanged)) {
			return &AssertionError{
				Type: a.Type,
				Expected: fmt.Sprintf("added=%v removed=%v unchanged=%v",
					a.Added, a.Removed, a.Unchanged),
				Actual: fmt.Sprintf("added=%v removed=%v unchanged=%v",
					d.Added, d.Removed, d.Unchanged),
			}
		}
		return nil

	case AssertEventCount:
		events, err := r.events.Events(ctx, docID)
		if err != nil {
			return err
		}
		if int64(len(events)) != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s stream has %d event(s)", a.Document, a.Count),
				Actual:   fmt.Sprintf("%d event(s)", len(events)),
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// equalLines compares expected line lists, treating nil and empty as
// equal.
func equalLines(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // assertion type for categorization
	Expected string // human-readable expected outcome
	Actual   string // human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  Expected: %s\n  Actual: %s",
		e.Type, e.Expected, e.Actual)
}
