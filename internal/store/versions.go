package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/roach88/chainvault/internal/domain"
)

// InsertVersion assigns the next version number for the document and
// inserts the row, as a single transaction. The caller fills every field
// except VersionNumber, which this method writes back on success.
//
// The read-then-insert runs inside one transaction and the
// UNIQUE(document_id, version_number) constraint closes the race window:
// two writers that both observe latest=N cannot both commit N+1. The
// loser gets a CONCURRENCY_CONFLICT fault and recomputes.
func (s *Store) InsertVersion(ctx context.Context, v *domain.Version) error {
	tx, err := s.begin(ctx, "insert version")
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	var latest int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version_number), 0) FROM versions WHERE document_id = ?
	`, v.DocumentID).Scan(&latest)
	if err != nil {
		return mapSQLError("insert version: latest number", err)
	}

	number := latest + 1
	_, err = tx.ExecContext(ctx, `
		INSERT INTO versions
		(id, document_id, version_number, content, description, is_auto_saved,
		 parent_version_id, user_id, timestamp, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`,
		v.ID,
		v.DocumentID,
		number,
		v.Content,
		v.Description,
		boolToInt(v.AutoSaved),
		nullable(v.ParentVersionID),
		nullable(v.UserID),
		v.Timestamp.UnixMilli(),
	)
	if err != nil {
		return mapSQLError("insert version", err)
	}

	if err := tx.Commit(); err != nil {
		return mapSQLError("insert version: commit", err)
	}

	v.VersionNumber = number
	return nil
}

// VersionByID returns the version with the given id, including soft-deleted
// rows. Returns a NOT_FOUND fault for an unknown id.
func (s *Store) VersionByID(ctx context.Context, id string) (*domain.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, version_number, content, description, is_auto_saved,
		       parent_version_id, user_id, timestamp, deleted_at
		FROM versions
		WHERE id = ?
	`, id)

	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("version", id)
	}
	if err != nil {
		return nil, mapSQLError("version by id", err)
	}
	return v, nil
}

// ActiveVersions returns the document's non-deleted versions ordered by
// version number descending, paged by limit/offset.
func (s *Store) ActiveVersions(ctx context.Context, documentID string, limit, offset int) ([]*domain.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, version_number, content, description, is_auto_saved,
		       parent_version_id, user_id, timestamp, deleted_at
		FROM versions
		WHERE document_id = ? AND deleted_at IS NULL
		ORDER BY version_number DESC
		LIMIT ? OFFSET ?
	`, documentID, limit, offset)
	if err != nil {
		return nil, mapSQLError("active versions", err)
	}
	defer rows.Close()

	versions := []*domain.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, mapSQLError("active versions: scan", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("active versions: iterate", err)
	}

	return versions, nil
}

// CountActiveVersions returns the number of non-deleted versions for a
// document, independent of any paging.
func (s *Store) CountActiveVersions(ctx context.Context, documentID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM versions
		WHERE document_id = ? AND deleted_at IS NULL
	`, documentID).Scan(&count)
	if err != nil {
		return 0, mapSQLError("count active versions", err)
	}
	return count, nil
}

// LatestActiveVersion returns the highest-numbered non-deleted version for
// a document, or a NOT_FOUND fault when the document has none.
func (s *Store) LatestActiveVersion(ctx context.Context, documentID string) (*domain.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, version_number, content, description, is_auto_saved,
		       parent_version_id, user_id, timestamp, deleted_at
		FROM versions
		WHERE document_id = ? AND deleted_at IS NULL
		ORDER BY version_number DESC
		LIMIT 1
	`, documentID)

	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("latest version for document", documentID)
	}
	if err != nil {
		return nil, mapSQLError("latest active version", err)
	}
	return v, nil
}

// MarkVersionDeleted soft-deletes a version. Returns false when the id is
// unknown or the version is already deleted; the row itself is never
// removed and the document's numbering is untouched.
func (s *Store) MarkVersionDeleted(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE versions SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, at.UnixMilli(), id)
	if err != nil {
		return false, mapSQLError("mark version deleted", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, mapSQLError("mark version deleted: rows affected", err)
	}
	return affected > 0, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(row scanner) (*domain.Version, error) {
	var (
		v         domain.Version
		autoSaved int
		parentID  sql.NullString
		userID    sql.NullString
		tsMilli   int64
		deletedAt sql.NullInt64
	)
	err := row.Scan(
		&v.ID, &v.DocumentID, &v.VersionNumber, &v.Content, &v.Description,
		&autoSaved, &parentID, &userID, &tsMilli, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	v.AutoSaved = autoSaved != 0
	if parentID.Valid {
		v.ParentVersionID = parentID.String
	}
	if userID.Valid {
		v.UserID = userID.String
	}
	v.Timestamp = time.UnixMilli(tsMilli).UTC()
	if deletedAt.Valid {
		t := time.UnixMilli(deletedAt.Int64).UTC()
		v.DeletedAt = &t
	}
	return &v, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
