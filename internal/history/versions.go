package history

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/chainvault/internal/domain"
)

// CreateVersionParams carries the caller-supplied fields for a new
// checkpoint. The manager assigns the id, number, and timestamp.
type CreateVersionParams struct {
	DocumentID  string
	Content     string
	Description string
	UserID      string
	AutoSaved   bool

	// ParentVersionID marks the checkpoint's origin for restores and
	// branches; empty for an ordinary edit.
	ParentVersionID string
}

// CreateVersion checkpoints a document's full content.
//
// The version number is max(existing)+1, assigned inside a storage
// transaction so two concurrent calls for the same document can never
// persist the same number: the loser of the race gets a conflict from the
// store and retries with a fresh read.
//
// Emits DOCUMENT_VERSION_CREATED on the document's stream.
func (m *Manager) CreateVersion(ctx context.Context, p CreateVersionParams) (*domain.Version, error) {
	if p.DocumentID == "" {
		return nil, fmt.Errorf("create version: empty document id")
	}

	v := &domain.Version{
		ID:              m.ids.Generate(),
		DocumentID:      p.DocumentID,
		Content:         p.Content,
		Description:     p.Description,
		AutoSaved:       p.AutoSaved,
		ParentVersionID: p.ParentVersionID,
		UserID:          p.UserID,
		Timestamp:       m.clock.Now(),
	}

	// InsertVersion assigns the number transactionally. A conflict here
	// means another writer took the number between our read and insert;
	// retry with a fresh transaction, which re-reads the max.
	var err error
	for attempt := 0; attempt < emitAttempts; attempt++ {
		err = m.store.InsertVersion(ctx, v)
		if err == nil || !domain.IsConflict(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	if err := m.emit(ctx, p.DocumentID, domain.TypeDocumentVersionCreated,
		&domain.DocumentVersionCreated{VersionID: v.ID}, p.UserID); err != nil {
		return nil, err
	}

	m.log.Info("version created",
		"document", p.DocumentID, "version", v.VersionNumber, "auto", p.AutoSaved)
	if m.met != nil {
		m.met.VersionsCreatedTotal.WithLabelValues(strconv.FormatBool(p.AutoSaved)).Inc()
	}
	return v, nil
}

// History is one page of a document's version listing.
type History struct {
	// Versions is ordered by version number descending and excludes
	// soft-deleted versions.
	Versions []*domain.Version

	// Total counts all non-deleted versions for the document, independent
	// of the page bounds.
	Total int64
}

// GetVersionHistory lists a document's active versions, newest first.
// A non-positive limit defaults to 50; a negative offset is treated as 0.
func (m *Manager) GetVersionHistory(ctx context.Context, documentID string, limit, offset int) (*History, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	versions, err := m.store.ActiveVersions(ctx, documentID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := m.store.CountActiveVersions(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return &History{Versions: versions, Total: total}, nil
}

// GetVersion returns a version by id, including soft-deleted versions
// (their DeletedAt is set). Returns a NOT_FOUND fault for an unknown id.
func (m *Manager) GetVersion(ctx context.Context, versionID string) (*domain.Version, error) {
	return m.store.VersionByID(ctx, versionID)
}

// GetLatestVersion returns the highest-numbered non-deleted version for a
// document, or a NOT_FOUND fault when the document has none.
func (m *Manager) GetLatestVersion(ctx context.Context, documentID string) (*domain.Version, error) {
	return m.store.LatestActiveVersion(ctx, documentID)
}

// DeleteVersion soft-deletes a version: the row and its number survive,
// the version just disappears from active listings. Returns false when
// the id is unknown or the version is already deleted. There is no
// undelete.
func (m *Manager) DeleteVersion(ctx context.Context, versionID, userID string) (bool, error) {
	v, err := m.store.VersionByID(ctx, versionID)
	if err != nil {
		if domain.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if v.Deleted() {
		return false, nil
	}

	deleted, err := m.store.MarkVersionDeleted(ctx, versionID, m.clock.Now())
	if err != nil || !deleted {
		return deleted, err
	}

	if err := m.emit(ctx, v.DocumentID, domain.TypeDocumentVersionDeleted,
		&domain.DocumentVersionDeleted{VersionID: versionID}, userID); err != nil {
		return false, err
	}

	m.log.Info("version soft-deleted", "document", v.DocumentID, "version", v.VersionNumber)
	if m.met != nil {
		m.met.DeletesTotal.Inc()
	}
	return true, nil
}

// RestoreResult is the structured outcome of RestoreVersion. A restore
// that cannot proceed is an expected business outcome, not a fault:
// Success is false and Conflicts explains why.
type RestoreResult struct {
	Success      bool
	NewVersionID string
	Conflicts    []string
}

// RestoreVersion restores a document to a prior version by creating a new
// checkpoint carrying the target's content, with ParentVersionID linking
// back to the target. The description defaults to "Restored to version N".
//
// Conflict detection is deliberately conservative: it rejects only
// structurally invalid restores (target belongs to a different document,
// or is soft-deleted) and never silently restores onto the wrong
// document. An unknown versionID is a NOT_FOUND fault, not a conflict.
//
// Emits DOCUMENT_VERSION_RESTORED in addition to the
// DOCUMENT_VERSION_CREATED from the new checkpoint.
func (m *Manager) RestoreVersion(ctx context.Context, documentID, versionID, userID, description string) (*RestoreResult, error) {
	target, err := m.store.VersionByID(ctx, versionID)
	if err != nil {
		return nil, err
	}

	var conflicts []string
	if target.DocumentID != documentID {
		conflicts = append(conflicts,
			fmt.Sprintf("version %s belongs to document %s, not %s", versionID, target.DocumentID, documentID))
	}
	if target.Deleted() {
		conflicts = append(conflicts, fmt.Sprintf("version %s is deleted", versionID))
	}
	if len(conflicts) > 0 {
		return &RestoreResult{Success: false, Conflicts: conflicts}, nil
	}

	if description == "" {
		description = fmt.Sprintf("Restored to version %d", target.VersionNumber)
	}

	v, err := m.CreateVersion(ctx, CreateVersionParams{
		DocumentID:      documentID,
		Content:         target.Content,
		Description:     description,
		UserID:          userID,
		ParentVersionID: versionID,
	})
	if err != nil {
		return nil, err
	}

	if err := m.emit(ctx, documentID, domain.TypeDocumentVersionRestored,
		&domain.DocumentVersionRestored{
			RestoredVersionID: versionID,
			NewVersionID:      v.ID,
		}, userID); err != nil {
		return nil, err
	}

	m.log.Info("version restored",
		"document", documentID, "from", target.VersionNumber, "to", v.VersionNumber)
	if m.met != nil {
		m.met.RestoresTotal.Inc()
	}
	return &RestoreResult{Success: true, NewVersionID: v.ID}, nil
}
