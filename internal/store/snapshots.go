package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/chainvault/internal/domain"
)

// UpsertSnapshot creates or replaces the cached materialization for
// (streamID, streamType). The store does not compute state itself; it
// persists whatever the caller materialized.
func (s *Store) UpsertSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (stream_id, stream_type, data, version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(stream_id, stream_type) DO UPDATE SET
			data = excluded.data,
			version = excluded.version
	`,
		snap.StreamID,
		string(snap.StreamType),
		string(snap.Data),
		snap.Version,
	)
	if err != nil {
		return mapSQLError("upsert snapshot", err)
	}
	return nil
}

// GetSnapshot returns the cached snapshot for (streamID, streamType), or
// nil if none has been materialized.
func (s *Store) GetSnapshot(ctx context.Context, streamID string, streamType domain.StreamType) (*domain.Snapshot, error) {
	var (
		data    string
		version int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT data, version FROM snapshots
		WHERE stream_id = ? AND stream_type = ?
	`, streamID, string(streamType)).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapSQLError("get snapshot", err)
	}

	return &domain.Snapshot{
		StreamID:   streamID,
		StreamType: streamType,
		Data:       []byte(data),
		Version:    version,
	}, nil
}
