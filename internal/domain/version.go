package domain

import "time"

// Version is an immutable full-content checkpoint of a document. The
// version number sequence per document starts at 1 and has no gaps; the
// manager assigns numbers, never the caller.
type Version struct {
	ID            string
	DocumentID    string
	VersionNumber int64
	Content       string
	Description   string
	AutoSaved     bool

	// ParentVersionID is set when the version originates from a restore or
	// a branch. For a branch's version 1 it references a version belonging
	// to a different document - that cross-edge is the branch link.
	ParentVersionID string

	UserID    string
	Timestamp time.Time

	// DeletedAt is set by soft delete. A deleted version keeps its row and
	// its number; it is only excluded from active listings.
	DeletedAt *time.Time
}

// Deleted reports whether the version has been soft-deleted.
func (v *Version) Deleted() bool { return v.DeletedAt != nil }

// MergeStrategy selects how MergeBranch produces the new version on the
// main document.
type MergeStrategy string

const (
	// MergeTheirs takes the branch's latest content.
	MergeTheirs MergeStrategy = "theirs"
	// MergeOurs keeps main's latest content and records the merge for audit.
	MergeOurs MergeStrategy = "ours"
	// MergeManual records a merge marker; content was resolved externally.
	MergeManual MergeStrategy = "manual"
)

// ValidMergeStrategy reports whether s is a known strategy.
func ValidMergeStrategy(s MergeStrategy) bool {
	switch s {
	case MergeTheirs, MergeOurs, MergeManual:
		return true
	default:
		return false
	}
}
