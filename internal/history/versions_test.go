package history

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chainvault/internal/domain"
	"github.com/roach88/chainvault/internal/eventstore"
	"github.com/roach88/chainvault/internal/store"
)

func setupManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewManager(s, eventstore.New(s), opts...)
}

func mustCreate(t *testing.T, m *Manager, docID, content string) *domain.Version {
	t.Helper()
	v, err := m.CreateVersion(context.Background(), CreateVersionParams{
		DocumentID: docID,
		Content:    content,
		UserID:     "user-1",
	})
	require.NoError(t, err)
	return v
}

func TestCreateVersion_SequentialNumbers(t *testing.T) {
	m := setupManager(t)

	for i := 1; i <= 3; i++ {
		v := mustCreate(t, m, "doc-1", "content")
		assert.Equal(t, int64(i), v.VersionNumber)
	}
}

func TestCreateVersion_EmitsAuditEvent(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	v := mustCreate(t, m, "doc-1", "hello")

	events, err := m.events.Events(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.TypeDocumentVersionCreated, events[0].Type)
	payload := events[0].Payload.(*domain.DocumentVersionCreated)
	assert.Equal(t, v.ID, payload.VersionID)
}

func TestCreateVersion_EmptyDocumentID(t *testing.T) {
	m := setupManager(t)

	_, err := m.CreateVersion(context.Background(), CreateVersionParams{Content: "x"})
	assert.Error(t, err)
}

func TestCreateVersion_ConcurrentWritersGetDistinctNumbers(t *testing.T) {
	m := setupManager(t)

	for i := 0; i < 3; i++ {
		mustCreate(t, m, "doc-1", "content")
	}

	var wg sync.WaitGroup
	numbers := make(chan int64, 2)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.CreateVersion(context.Background(), CreateVersionParams{
				DocumentID: "doc-1",
				Content:    "racer",
			})
			if err != nil {
				errs <- err
				return
			}
			numbers <- v.VersionNumber
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	got := map[int64]bool{}
	for n := range numbers {
		got[n] = true
	}
	assert.True(t, got[4] && got[5], "expected versions 4 and 5, got %v", got)
}

func TestGetVersionHistory_NewestFirstWithPaging(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		mustCreate(t, m, "doc-1", "content")
	}

	h, err := m.GetVersionHistory(ctx, "doc-1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), h.Total)
	require.Len(t, h.Versions, 2)
	assert.Equal(t, int64(5), h.Versions[0].VersionNumber)
	assert.Equal(t, int64(4), h.Versions[1].VersionNumber)

	h, err = m.GetVersionHistory(ctx, "doc-1", 2, 4)
	require.NoError(t, err)
	require.Len(t, h.Versions, 1)
	assert.Equal(t, int64(1), h.Versions[0].VersionNumber)
}

func TestGetVersionHistory_DefaultsLimit(t *testing.T) {
	m := setupManager(t)

	mustCreate(t, m, "doc-1", "content")

	h, err := m.GetVersionHistory(context.Background(), "doc-1", 0, -3)
	require.NoError(t, err)
	assert.Len(t, h.Versions, 1)
}

func TestDeleteVersion_SoftDeleteKeepsNumbering(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	mustCreate(t, m, "doc-1", "v1")
	v2 := mustCreate(t, m, "doc-1", "v2")

	deleted, err := m.DeleteVersion(ctx, v2.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	// The deleted version vanishes from history but keeps its row.
	h, err := m.GetVersionHistory(ctx, "doc-1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.Total)
	require.Len(t, h.Versions, 1)
	assert.Equal(t, int64(1), h.Versions[0].VersionNumber)

	got, err := m.GetVersion(ctx, v2.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted())
	assert.Equal(t, "v2", got.Content)

	// Numbers never recycle: the next version is 3, not 2.
	v3 := mustCreate(t, m, "doc-1", "v3")
	assert.Equal(t, int64(3), v3.VersionNumber)
}

func TestDeleteVersion_IdempotentAndUnknown(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	v := mustCreate(t, m, "doc-1", "content")

	deleted, err := m.DeleteVersion(ctx, v.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = m.DeleteVersion(ctx, v.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = m.DeleteVersion(ctx, "no-such-version", "user-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGetLatestVersion_SkipsDeleted(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	v1 := mustCreate(t, m, "doc-1", "v1")
	v2 := mustCreate(t, m, "doc-1", "v2")

	_, err := m.DeleteVersion(ctx, v2.ID, "user-1")
	require.NoError(t, err)

	latest, err := m.GetLatestVersion(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, v1.ID, latest.ID)
}

func TestRestoreVersion_CreatesNewCheckpoint(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	v1 := mustCreate(t, m, "doc-1", "original")
	mustCreate(t, m, "doc-1", "edited")

	res, err := m.RestoreVersion(ctx, "doc-1", v1.ID, "user-1", "")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Empty(t, res.Conflicts)

	restored, err := m.GetVersion(ctx, res.NewVersionID)
	require.NoError(t, err)
	assert.Equal(t, "original", restored.Content)
	assert.Equal(t, int64(3), restored.VersionNumber)
	assert.Equal(t, v1.ID, restored.ParentVersionID)
	assert.Equal(t, "Restored to version 1", restored.Description)
}

func TestRestoreVersion_UnknownVersionIsNotFound(t *testing.T) {
	m := setupManager(t)

	_, err := m.RestoreVersion(context.Background(), "doc-1", "no-such-version", "user-1", "")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestRestoreVersion_WrongDocumentConflicts(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	other := mustCreate(t, m, "doc-2", "other content")
	mustCreate(t, m, "doc-1", "mine")

	res, err := m.RestoreVersion(ctx, "doc-1", other.ID, "user-1", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Conflicts)
}

func TestRestoreVersion_DeletedVersionConflicts(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	v1 := mustCreate(t, m, "doc-1", "v1")
	mustCreate(t, m, "doc-1", "v2")
	_, err := m.DeleteVersion(ctx, v1.ID, "user-1")
	require.NoError(t, err)

	res, err := m.RestoreVersion(ctx, "doc-1", v1.ID, "user-1", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Conflicts)

	// A failed restore creates nothing.
	h, err := m.GetVersionHistory(ctx, "doc-1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.Total)
}
