package history

import (
	"context"
	"strings"
)

// Diff classifies the lines of two versions' contents. This is a
// content-classification diff (which lines changed), not a minimal edit
// script: a line counts as unchanged if its exact value appears anywhere
// in both versions.
type Diff struct {
	// Added lists lines present in the second version but absent, by
	// value, from the first - in second-version order.
	Added []string

	// Removed lists lines present in the first version but absent from
	// the second - in first-version order.
	Removed []string

	// Unchanged lists lines present in both, in first-version order.
	Unchanged []string
}

// GetVersionDiff diffs two versions by id. Diffing a version against
// itself yields empty Added/Removed and every line in Unchanged. Deleted
// versions may be diffed - their content is retained.
func (m *Manager) GetVersionDiff(ctx context.Context, versionID1, versionID2 string) (*Diff, error) {
	v1, err := m.store.VersionByID(ctx, versionID1)
	if err != nil {
		return nil, err
	}
	v2, err := m.store.VersionByID(ctx, versionID2)
	if err != nil {
		return nil, err
	}

	if m.met != nil {
		m.met.DiffsTotal.Inc()
	}
	return diffContent(v1.Content, v2.Content), nil
}

// diffContent is the pure line classification shared by GetVersionDiff
// and the tests.
func diffContent(content1, content2 string) *Diff {
	lines1 := strings.Split(content1, "\n")
	lines2 := strings.Split(content2, "\n")

	in1 := make(map[string]struct{}, len(lines1))
	for _, l := range lines1 {
		in1[l] = struct{}{}
	}
	in2 := make(map[string]struct{}, len(lines2))
	for _, l := range lines2 {
		in2[l] = struct{}{}
	}

	d := &Diff{Added: []string{}, Removed: []string{}, Unchanged: []string{}}
	for _, l := range lines2 {
		if _, ok := in1[l]; !ok {
			d.Added = append(d.Added, l)
		}
	}
	for _, l := range lines1 {
		if _, ok := in2[l]; ok {
			d.Unchanged = append(d.Unchanged, l)
		} else {
			d.Removed = append(d.Removed, l)
		}
	}
	return d
}
