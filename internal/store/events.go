package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/roach88/chainvault/internal/domain"
)

// maxScanResults caps the cross-stream analytics scans (by type, by user,
// by time range). These queries have no pagination contract; the cap keeps
// a pathological scan from loading the whole table.
const maxScanResults = 1000

// EventRow is an event as stored: the payload is kept opaque here and
// decoded by the eventstore package, which owns the type registry.
type EventRow struct {
	ID        string
	StreamID  string
	Version   int64
	Type      string
	Payload   []byte
	UserID    string
	Timestamp time.Time
}

// InsertEvents appends a batch of events in a single transaction.
//
// Each row is checked independently against its stream: the row's version
// must be exactly one greater than the stream's current latest (counting
// rows inserted earlier in the same batch, which the transaction sees).
// On any failed check the whole batch rolls back and a CONCURRENCY_CONFLICT
// fault is returned - partial commits are impossible.
//
// The UNIQUE(stream_id, version) constraint is the enforcement backstop:
// even if two connections raced past the read, one insert would fail and
// map to the same fault.
func (s *Store) InsertEvents(ctx context.Context, rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.begin(ctx, "insert events")
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	for _, row := range rows {
		var latest int64
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(version), 0) FROM events WHERE stream_id = ?
		`, row.StreamID).Scan(&latest)
		if err != nil {
			return mapSQLError("insert events: latest version", err)
		}

		if row.Version != latest+1 {
			return domain.NewConflict(row.StreamID, row.Version, latest)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (id, stream_id, version, type, payload, user_id, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			row.ID,
			row.StreamID,
			row.Version,
			row.Type,
			string(row.Payload),
			nullable(row.UserID),
			row.Timestamp.UnixMilli(),
		)
		if err != nil {
			return mapSQLError("insert events", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapSQLError("insert events: commit", err)
	}

	return nil
}

// EventsForStream returns all events for a stream in ascending version
// order. Returns an empty slice (not nil) for an unknown stream.
func (s *Store) EventsForStream(ctx context.Context, streamID string) ([]EventRow, error) {
	return s.queryEvents(ctx, `
		SELECT id, stream_id, version, type, payload, user_id, timestamp
		FROM events
		WHERE stream_id = ?
		ORDER BY version ASC
	`, streamID)
}

// EventsForStreamFrom returns the stream's events with version strictly
// greater than after, ascending. Used to fold a tail on top of a snapshot.
func (s *Store) EventsForStreamFrom(ctx context.Context, streamID string, after int64) ([]EventRow, error) {
	return s.queryEvents(ctx, `
		SELECT id, stream_id, version, type, payload, user_id, timestamp
		FROM events
		WHERE stream_id = ? AND version > ?
		ORDER BY version ASC
	`, streamID, after)
}

// EventsByType returns events of one type across all streams, oldest
// first, capped at maxScanResults.
func (s *Store) EventsByType(ctx context.Context, eventType string) ([]EventRow, error) {
	return s.queryEvents(ctx, `
		SELECT id, stream_id, version, type, payload, user_id, timestamp
		FROM events
		WHERE type = ?
		ORDER BY timestamp ASC, id ASC
		LIMIT ?
	`, eventType, maxScanResults)
}

// EventsByUser returns events attributed to one user across all streams,
// oldest first, capped at maxScanResults.
func (s *Store) EventsByUser(ctx context.Context, userID string) ([]EventRow, error) {
	return s.queryEvents(ctx, `
		SELECT id, stream_id, version, type, payload, user_id, timestamp
		FROM events
		WHERE user_id = ?
		ORDER BY timestamp ASC, id ASC
		LIMIT ?
	`, userID, maxScanResults)
}

// EventsByTimeRange returns events with start <= timestamp < end across
// all streams, oldest first, capped at maxScanResults.
func (s *Store) EventsByTimeRange(ctx context.Context, start, end time.Time) ([]EventRow, error) {
	return s.queryEvents(ctx, `
		SELECT id, stream_id, version, type, payload, user_id, timestamp
		FROM events
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC, id ASC
		LIMIT ?
	`, start.UnixMilli(), end.UnixMilli(), maxScanResults)
}

// RecentEvents returns the n most recent events, newest first.
func (s *Store) RecentEvents(ctx context.Context, n int) ([]EventRow, error) {
	return s.queryEvents(ctx, `
		SELECT id, stream_id, version, type, payload, user_id, timestamp
		FROM events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, n)
}

// LatestVersion returns the highest event version for a stream, 0 if the
// stream has no events.
func (s *Store) LatestVersion(ctx context.Context, streamID string) (int64, error) {
	var latest int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM events WHERE stream_id = ?
	`, streamID).Scan(&latest)
	if err != nil {
		return 0, mapSQLError("latest version", err)
	}
	return latest, nil
}

// CountEvents returns the total number of events in the log.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	if err != nil {
		return 0, mapSQLError("count events", err)
	}
	return count, nil
}

// TypeCount pairs an event type with how many events carry it.
type TypeCount struct {
	Type  string
	Count int64
}

// CountEventsByType returns per-type event counts, largest first with the
// type name as tiebreak so output order is stable.
func (s *Store) CountEventsByType(ctx context.Context) ([]TypeCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*) AS n
		FROM events
		GROUP BY type
		ORDER BY n DESC, type ASC
	`)
	if err != nil {
		return nil, mapSQLError("count events by type", err)
	}
	defer rows.Close()

	counts := []TypeCount{}
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, mapSQLError("count events by type: scan", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("count events by type: iterate", err)
	}

	return counts, nil
}

// ListStreamIDs returns all distinct stream ids, sorted.
func (s *Store) ListStreamIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT stream_id FROM events ORDER BY stream_id
	`)
	if err != nil {
		return nil, mapSQLError("list streams", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapSQLError("list streams: scan", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("list streams: iterate", err)
	}

	return ids, nil
}

// DeleteEventsBefore removes events with timestamp strictly older than
// cutoff and returns how many were deleted. This is the one operation that
// physically removes events; replay of a truncated stream prefix is broken
// afterwards, so callers gate it behind explicit confirmation.
func (s *Store) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM events WHERE timestamp < ?
	`, cutoff.UnixMilli())
	if err != nil {
		return 0, mapSQLError("delete old events", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, mapSQLError("delete old events: rows affected", err)
	}
	return count, nil
}

// queryEvents runs an event SELECT and scans the rows.
func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]EventRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLError("query events", err)
	}
	defer rows.Close()

	events := []EventRow{}
	for rows.Next() {
		row, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("iterate events", err)
	}

	return events, nil
}

// scanEvent scans one event row.
func scanEvent(rows *sql.Rows) (EventRow, error) {
	var (
		row     EventRow
		payload string
		userID  sql.NullString
		tsMilli int64
	)
	if err := rows.Scan(
		&row.ID, &row.StreamID, &row.Version, &row.Type,
		&payload, &userID, &tsMilli,
	); err != nil {
		return EventRow{}, mapSQLError("scan event", err)
	}

	row.Payload = []byte(payload)
	if userID.Valid {
		row.UserID = userID.String
	}
	row.Timestamp = time.UnixMilli(tsMilli).UTC()
	return row, nil
}

// nullable maps "" to NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
