package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chainvault/internal/domain"
)

func TestDiffContent(t *testing.T) {
	tests := []struct {
		name      string
		content1  string
		content2  string
		added     []string
		removed   []string
		unchanged []string
	}{
		{
			name:      "line appended",
			content1:  "A",
			content2:  "A\nB",
			added:     []string{"B"},
			removed:   []string{},
			unchanged: []string{"A"},
		},
		{
			name:      "line replaced",
			content1:  "A\nB",
			content2:  "A\nC",
			added:     []string{"C"},
			removed:   []string{"B"},
			unchanged: []string{"A"},
		},
		{
			name:      "identical",
			content1:  "A\nB",
			content2:  "A\nB",
			added:     []string{},
			removed:   []string{},
			unchanged: []string{"A", "B"},
		},
		{
			name:      "disjoint",
			content1:  "A",
			content2:  "B",
			added:     []string{"B"},
			removed:   []string{"A"},
			unchanged: []string{},
		},
		{
			name:      "moved line is unchanged",
			content1:  "A\nB",
			content2:  "B\nA",
			added:     []string{},
			removed:   []string{},
			unchanged: []string{"A", "B"},
		},
		{
			name:      "empty both",
			content1:  "",
			content2:  "",
			added:     []string{},
			removed:   []string{},
			unchanged: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := diffContent(tt.content1, tt.content2)
			assert.Equal(t, tt.added, d.Added)
			assert.Equal(t, tt.removed, d.Removed)
			assert.Equal(t, tt.unchanged, d.Unchanged)
		})
	}
}

func TestDiffContent_OrderOfAddedFollowsSecondVersion(t *testing.T) {
	d := diffContent("keep", "Z\nkeep\nA")
	assert.Equal(t, []string{"Z", "A"}, d.Added)
}

func TestGetVersionDiff(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	v1 := mustCreate(t, m, "doc-1", "A")
	v2 := mustCreate(t, m, "doc-1", "A\nB")

	d, err := m.GetVersionDiff(ctx, v1.ID, v2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, d.Added)
	assert.Empty(t, d.Removed)
	assert.Equal(t, []string{"A"}, d.Unchanged)
}

func TestGetVersionDiff_SelfIsEmpty(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	v := mustCreate(t, m, "doc-1", "A\nB\nC")

	d, err := m.GetVersionDiff(ctx, v.ID, v.ID)
	require.NoError(t, err)
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Removed)
	assert.Equal(t, []string{"A", "B", "C"}, d.Unchanged)
}

func TestGetVersionDiff_DeletedVersionStillDiffable(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	v1 := mustCreate(t, m, "doc-1", "A")
	v2 := mustCreate(t, m, "doc-1", "A\nB")
	_, err := m.DeleteVersion(ctx, v1.ID, "user-1")
	require.NoError(t, err)

	d, err := m.GetVersionDiff(ctx, v1.ID, v2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, d.Added)
}

func TestGetVersionDiff_UnknownVersion(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	v := mustCreate(t, m, "doc-1", "A")

	_, err := m.GetVersionDiff(ctx, v.ID, "no-such-version")
	assert.True(t, domain.IsNotFound(err))
}
