package store

import (
	"context"
	"testing"
	"time"

	"github.com/roach88/chainvault/internal/domain"
)

func insertTestVersion(t *testing.T, s *Store, id, docID, content string) *domain.Version {
	t.Helper()
	v := &domain.Version{
		ID:         id,
		DocumentID: docID,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.InsertVersion(context.Background(), v); err != nil {
		t.Fatalf("InsertVersion(%s) failed: %v", id, err)
	}
	return v
}

func TestInsertVersion_AssignsSequentialNumbers(t *testing.T) {
	s := newTestStore(t)

	v1 := insertTestVersion(t, s, "v1", "doc-1", "A")
	v2 := insertTestVersion(t, s, "v2", "doc-1", "B")
	v3 := insertTestVersion(t, s, "v3", "doc-1", "C")

	for i, v := range []*domain.Version{v1, v2, v3} {
		if v.VersionNumber != int64(i+1) {
			t.Errorf("version %s number = %d, want %d", v.ID, v.VersionNumber, i+1)
		}
	}
}

func TestInsertVersion_NumbersAreIndependentPerDocument(t *testing.T) {
	s := newTestStore(t)

	insertTestVersion(t, s, "a1", "doc-a", "x")
	insertTestVersion(t, s, "a2", "doc-a", "y")
	b1 := insertTestVersion(t, s, "b1", "doc-b", "z")

	if b1.VersionNumber != 1 {
		t.Errorf("doc-b first version number = %d, want 1", b1.VersionNumber)
	}
}

func TestVersionByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.VersionByID(context.Background(), "nope")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND fault, got %v", err)
	}
}

func TestMarkVersionDeleted_DoesNotRenumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestVersion(t, s, "v1", "doc-1", "A")
	insertTestVersion(t, s, "v2", "doc-1", "B")

	deleted, err := s.MarkVersionDeleted(ctx, "v1", time.Now().UTC())
	if err != nil {
		t.Fatalf("MarkVersionDeleted() failed: %v", err)
	}
	if !deleted {
		t.Fatal("MarkVersionDeleted() = false, want true")
	}

	// The next version continues the sequence past the deleted row.
	v3 := insertTestVersion(t, s, "v3", "doc-1", "C")
	if v3.VersionNumber != 3 {
		t.Errorf("version after soft delete numbered %d, want 3", v3.VersionNumber)
	}

	// The deleted row is still readable with DeletedAt set.
	v1, err := s.VersionByID(ctx, "v1")
	if err != nil {
		t.Fatalf("VersionByID(v1) failed: %v", err)
	}
	if !v1.Deleted() {
		t.Error("v1.Deleted() = false after soft delete")
	}
}

func TestMarkVersionDeleted_Idempotence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestVersion(t, s, "v1", "doc-1", "A")

	if deleted, _ := s.MarkVersionDeleted(ctx, "v1", time.Now().UTC()); !deleted {
		t.Fatal("first delete should report true")
	}
	if deleted, _ := s.MarkVersionDeleted(ctx, "v1", time.Now().UTC()); deleted {
		t.Error("second delete should report false")
	}
	if deleted, _ := s.MarkVersionDeleted(ctx, "ghost", time.Now().UTC()); deleted {
		t.Error("deleting unknown version should report false")
	}
}

func TestActiveVersions_ExcludesDeletedAndPages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestVersion(t, s, "v1", "doc-1", "A")
	insertTestVersion(t, s, "v2", "doc-1", "B")
	insertTestVersion(t, s, "v3", "doc-1", "C")
	if _, err := s.MarkVersionDeleted(ctx, "v2", time.Now().UTC()); err != nil {
		t.Fatalf("MarkVersionDeleted() failed: %v", err)
	}

	versions, err := s.ActiveVersions(ctx, "doc-1", 50, 0)
	if err != nil {
		t.Fatalf("ActiveVersions() failed: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("got %d active versions, want 2", len(versions))
	}
	// Descending by number
	if versions[0].ID != "v3" || versions[1].ID != "v1" {
		t.Errorf("unexpected order: %s, %s", versions[0].ID, versions[1].ID)
	}

	total, err := s.CountActiveVersions(ctx, "doc-1")
	if err != nil {
		t.Fatalf("CountActiveVersions() failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}

	page, err := s.ActiveVersions(ctx, "doc-1", 1, 1)
	if err != nil {
		t.Fatalf("ActiveVersions(limit=1, offset=1) failed: %v", err)
	}
	if len(page) != 1 || page[0].ID != "v1" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestLatestActiveVersion_SkipsDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestVersion(t, s, "v1", "doc-1", "A")
	insertTestVersion(t, s, "v2", "doc-1", "B")
	if _, err := s.MarkVersionDeleted(ctx, "v2", time.Now().UTC()); err != nil {
		t.Fatalf("MarkVersionDeleted() failed: %v", err)
	}

	latest, err := s.LatestActiveVersion(ctx, "doc-1")
	if err != nil {
		t.Fatalf("LatestActiveVersion() failed: %v", err)
	}
	if latest.ID != "v1" {
		t.Errorf("latest active = %s, want v1", latest.ID)
	}
}

func TestLatestActiveVersion_NoVersions(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestActiveVersion(context.Background(), "doc-empty")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND fault, got %v", err)
	}
}

func TestInsertVersion_RoundTripsFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	v := &domain.Version{
		ID:              "v1",
		DocumentID:      "doc-1",
		Content:         "hello\nworld",
		Description:     "first draft",
		AutoSaved:       true,
		ParentVersionID: "v0",
		UserID:          "user-1",
		Timestamp:       at,
	}
	if err := s.InsertVersion(ctx, v); err != nil {
		t.Fatalf("InsertVersion() failed: %v", err)
	}

	got, err := s.VersionByID(ctx, "v1")
	if err != nil {
		t.Fatalf("VersionByID() failed: %v", err)
	}
	if got.Content != v.Content || got.Description != v.Description ||
		!got.AutoSaved || got.ParentVersionID != "v0" ||
		got.UserID != "user-1" || !got.Timestamp.Equal(at) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
