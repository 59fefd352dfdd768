package history

import (
	"context"
	"fmt"

	"github.com/roach88/chainvault/internal/domain"
)

// CreateBranch forks a document at a chosen version. The branch is a
// first-class document with a fresh id: its version 1 copies the base
// version's content and carries a cross-document ParentVersionID back to
// it, and its later versions are independent of the source document.
//
// Branching from a version of another document, or from a soft-deleted
// version, is an INVALID_REFERENCE fault.
//
// Emits DOCUMENT_BRANCH_CREATED on the source stream and
// DOCUMENT_CREATED on the branch stream (plus the branch's own
// DOCUMENT_VERSION_CREATED from the checkpoint).
func (m *Manager) CreateBranch(ctx context.Context, documentID, baseVersionID, branchName, userID string) (*domain.Version, error) {
	if branchName == "" {
		return nil, fmt.Errorf("create branch: empty branch name")
	}

	base, err := m.store.VersionByID(ctx, baseVersionID)
	if err != nil {
		return nil, err
	}
	if base.DocumentID != documentID {
		return nil, domain.NewInvalidReference(fmt.Sprintf(
			"base version %s belongs to document %s, not %s", baseVersionID, base.DocumentID, documentID))
	}
	if base.Deleted() {
		return nil, domain.NewInvalidReference(fmt.Sprintf(
			"base version %s is deleted", baseVersionID))
	}

	branchDocID := m.ids.Generate()

	if err := m.emit(ctx, branchDocID, domain.TypeDocumentCreated,
		&domain.DocumentCreated{Title: branchName}, userID); err != nil {
		return nil, err
	}

	v, err := m.CreateVersion(ctx, CreateVersionParams{
		DocumentID:      branchDocID,
		Content:         base.Content,
		Description:     fmt.Sprintf("Created branch %q from version %d", branchName, base.VersionNumber),
		UserID:          userID,
		ParentVersionID: baseVersionID,
	})
	if err != nil {
		return nil, err
	}

	if err := m.emit(ctx, documentID, domain.TypeDocumentBranchCreated,
		&domain.DocumentBranchCreated{
			BranchDocumentID: branchDocID,
			BaseVersionID:    baseVersionID,
			BranchName:       branchName,
		}, userID); err != nil {
		return nil, err
	}

	m.log.Info("branch created",
		"document", documentID, "branch", branchDocID, "name", branchName)
	if m.met != nil {
		m.met.BranchesTotal.Inc()
	}
	return v, nil
}

// MergeResult is the structured outcome of MergeBranch. A merge where
// either document has no versions is an expected outcome, not a fault.
type MergeResult struct {
	Success      bool
	NewVersionID string
}

// MergeBranch produces a new version on the main document according to
// the strategy:
//
//   - theirs: the new version carries the branch's latest content
//   - ours: the new version keeps main's latest content; the merge is
//     recorded for audit only
//   - manual: content was resolved externally; the merge is recorded as a
//     marker without overwriting anything
//
// Divergent edits are NOT reconciled - there is no three-way merge.
//
// Emits DOCUMENT_BRANCH_MERGED on the main stream.
func (m *Manager) MergeBranch(ctx context.Context, mainDocumentID, branchDocumentID, userID string, strategy domain.MergeStrategy) (*MergeResult, error) {
	if !domain.ValidMergeStrategy(strategy) {
		return nil, fmt.Errorf("merge branch: unknown strategy %q", strategy)
	}

	mainLatest, err := m.store.LatestActiveVersion(ctx, mainDocumentID)
	if err != nil {
		if domain.IsNotFound(err) {
			return &MergeResult{Success: false}, nil
		}
		return nil, err
	}
	branchLatest, err := m.store.LatestActiveVersion(ctx, branchDocumentID)
	if err != nil {
		if domain.IsNotFound(err) {
			return &MergeResult{Success: false}, nil
		}
		return nil, err
	}

	content := mainLatest.Content
	parentID := ""
	if strategy == domain.MergeTheirs {
		content = branchLatest.Content
		parentID = branchLatest.ID
	}

	v, err := m.CreateVersion(ctx, CreateVersionParams{
		DocumentID:      mainDocumentID,
		Content:         content,
		Description:     fmt.Sprintf("Merged branch %s (%s)", branchDocumentID, strategy),
		UserID:          userID,
		ParentVersionID: parentID,
	})
	if err != nil {
		return nil, err
	}

	if err := m.emit(ctx, mainDocumentID, domain.TypeDocumentBranchMerged,
		&domain.DocumentBranchMerged{
			BranchDocumentID: branchDocumentID,
			Strategy:         string(strategy),
			NewVersionID:     v.ID,
		}, userID); err != nil {
		return nil, err
	}

	m.log.Info("branch merged",
		"main", mainDocumentID, "branch", branchDocumentID, "strategy", string(strategy))
	if m.met != nil {
		m.met.MergesTotal.WithLabelValues(string(strategy)).Inc()
	}
	return &MergeResult{Success: true, NewVersionID: v.ID}, nil
}
