// Package eventstore implements the append-only event log that is the
// system of record for chains, documents, and agents.
//
// Every mutation is appended as an immutable event tagged with a stream id
// and a per-stream monotonic version. The store enforces the ordering
// invariant (versions 1,2,3,... with no gaps), serves audit queries, and
// reconstructs current state by replaying a stream through a type-specific
// reducer.
package eventstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/chainvault/internal/domain"
	"github.com/roach88/chainvault/internal/metrics"
	"github.com/roach88/chainvault/internal/store"
)

// recentEventLimit is how many events Stats returns in its recent list.
const recentEventLimit = 10

// EventStore is the durable, ordered, replayable log of domain events.
//
// Thread-safety: safe for concurrent use. Per-stream serialization happens
// inside the storage transaction; unrelated streams never contend beyond
// SQLite's single writer.
type EventStore struct {
	store *store.Store
	ids   domain.IDGenerator
	clock domain.Clock
	log   *slog.Logger
	met   *metrics.Metrics

	// snapshotEvery refreshes a stream's snapshot after every N appended
	// versions. 0 disables automatic snapshots.
	snapshotEvery int64
}

// Option configures an EventStore.
type Option func(*EventStore)

// WithIDGenerator overrides the event id generator (tests use
// domain.FixedGenerator).
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(es *EventStore) { es.ids = g }
}

// WithClock overrides the timestamp source.
func WithClock(c domain.Clock) Option {
	return func(es *EventStore) { es.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(es *EventStore) { es.log = l }
}

// WithMetrics enables Prometheus collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(es *EventStore) { es.met = m }
}

// WithSnapshotEvery enables automatic snapshot refresh each time a
// stream's version crosses a multiple of n.
func WithSnapshotEvery(n int64) Option {
	return func(es *EventStore) { es.snapshotEvery = n }
}

// New creates an EventStore over the given storage handle.
func New(s *store.Store, opts ...Option) *EventStore {
	es := &EventStore{
		store: s,
		ids:   domain.UUIDv7Generator{},
		clock: domain.SystemClock{},
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(es)
	}
	return es
}

// Append appends a batch of events atomically.
//
// Each input's Version must be exactly one greater than its stream's
// current latest; otherwise the whole batch fails with a
// CONCURRENCY_CONFLICT fault and nothing commits. The caller's retry
// policy is to re-fetch LatestVersion, recompute, and retry - the store
// never retries on its own.
//
// Inputs in one batch may target different streams; each is checked
// independently against its own stream.
func (es *EventStore) Append(ctx context.Context, inputs []domain.Input) error {
	if len(inputs) == 0 {
		return nil
	}

	rows := make([]store.EventRow, len(inputs))
	for i, in := range inputs {
		if in.StreamID == "" {
			return fmt.Errorf("append: input %d has empty stream id", i)
		}
		if in.Version < 1 {
			return fmt.Errorf("append: input %d has non-positive version %d", i, in.Version)
		}
		if in.Payload != nil && in.Payload.EventType() != in.Type {
			return fmt.Errorf("append: input %d payload type %s does not match event type %s",
				i, in.Payload.EventType(), in.Type)
		}

		payload, err := domain.MarshalPayload(in.Payload)
		if err != nil {
			return fmt.Errorf("append: %w", err)
		}

		rows[i] = store.EventRow{
			ID:        es.ids.Generate(),
			StreamID:  in.StreamID,
			Version:   in.Version,
			Type:      string(in.Type),
			Payload:   payload,
			UserID:    in.UserID,
			Timestamp: es.clock.Now(),
		}
	}

	if err := es.store.InsertEvents(ctx, rows); err != nil {
		if domain.IsConflict(err) && es.met != nil {
			es.met.AppendConflictsTotal.Inc()
		}
		return err
	}

	for _, in := range inputs {
		es.log.Debug("event appended",
			"stream", in.StreamID, "type", string(in.Type), "version", in.Version)
		if es.met != nil {
			es.met.EventsAppendedTotal.WithLabelValues(string(in.Type)).Inc()
		}
	}

	es.maybeSnapshot(ctx, inputs)
	return nil
}

// maybeSnapshot refreshes snapshots for streams whose new latest version
// crossed a snapshot interval. Snapshots are a cache: a refresh failure is
// logged and swallowed, never surfaced to the appender.
func (es *EventStore) maybeSnapshot(ctx context.Context, inputs []domain.Input) {
	if es.snapshotEvery <= 0 {
		return
	}

	type streamInfo struct {
		latest int64
		kind   domain.StreamType
	}
	streams := map[string]streamInfo{}
	for _, in := range inputs {
		info := streams[in.StreamID]
		if in.Version > info.latest {
			info.latest = in.Version
		}
		if info.kind == "" {
			info.kind = domain.StreamTypeFor(in.Type)
		}
		streams[in.StreamID] = info
	}

	for id, info := range streams {
		if info.kind == "" || info.latest%es.snapshotEvery != 0 {
			continue
		}
		state, err := es.Replay(ctx, id, info.kind)
		if err != nil {
			es.log.Warn("snapshot refresh: replay failed", "stream", id, "error", err)
			continue
		}
		data, err := MarshalState(state)
		if err != nil {
			es.log.Warn("snapshot refresh: marshal failed", "stream", id, "error", err)
			continue
		}
		if _, err := es.CreateSnapshot(ctx, id, data, info.kind); err != nil {
			es.log.Warn("snapshot refresh: upsert failed", "stream", id, "error", err)
		}
	}
}

// Events returns all events for a stream in ascending version order.
func (es *EventStore) Events(ctx context.Context, streamID string) ([]domain.Event, error) {
	rows, err := es.store.EventsForStream(ctx, streamID)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// EventsByType returns events of one type across all streams, oldest
// first, capped at an internal limit.
func (es *EventStore) EventsByType(ctx context.Context, t domain.Type) ([]domain.Event, error) {
	rows, err := es.store.EventsByType(ctx, string(t))
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// EventsByUser returns events attributed to one user across all streams.
func (es *EventStore) EventsByUser(ctx context.Context, userID string) ([]domain.Event, error) {
	rows, err := es.store.EventsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// EventsByTimeRange returns events with start <= timestamp < end.
func (es *EventStore) EventsByTimeRange(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	rows, err := es.store.EventsByTimeRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// LatestVersion returns the stream's latest event version, 0 for a stream
// with no events.
func (es *EventStore) LatestVersion(ctx context.Context, streamID string) (int64, error) {
	return es.store.LatestVersion(ctx, streamID)
}

// Snapshot returns the cached materialization for (streamID, streamType),
// or nil when none exists.
func (es *EventStore) Snapshot(ctx context.Context, streamID string, t domain.StreamType) (*domain.Snapshot, error) {
	if !domain.ValidStreamType(t) {
		return nil, fmt.Errorf("snapshot: unknown stream type %q", t)
	}
	return es.store.GetSnapshot(ctx, streamID, t)
}

// CreateSnapshot upserts the cached state for (streamID, streamType). The
// store does not replay here; it persists whatever the caller materialized
// and stamps it with the stream's current latest version, preserving the
// invariant that a snapshot's version never exceeds what is persisted.
func (es *EventStore) CreateSnapshot(ctx context.Context, streamID string, data []byte, t domain.StreamType) (*domain.Snapshot, error) {
	if !domain.ValidStreamType(t) {
		return nil, fmt.Errorf("create snapshot: unknown stream type %q", t)
	}

	latest, err := es.store.LatestVersion(ctx, streamID)
	if err != nil {
		return nil, err
	}

	snap := &domain.Snapshot{
		StreamID:   streamID,
		StreamType: t,
		Data:       data,
		Version:    latest,
	}
	if err := es.store.UpsertSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	if es.met != nil {
		es.met.SnapshotsWrittenTotal.Inc()
	}
	es.log.Debug("snapshot written", "stream", streamID, "type", string(t), "version", latest)
	return snap, nil
}

// CleanupOldEvents irreversibly deletes events older than cutoff and
// returns how many were removed.
//
// This is an administrative retention operation, not part of normal
// request flow: it breaks replay for the truncated prefix of every
// affected stream, which is acceptable only when snapshots are trusted to
// cover that history.
func (es *EventStore) CleanupOldEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	count, err := es.store.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		es.log.Info("retention cleanup removed events", "count", count, "cutoff", cutoff)
	}
	if es.met != nil {
		es.met.EventsCleanedTotal.Add(float64(count))
	}
	return count, nil
}

// ListStreams returns all distinct stream ids, sorted.
func (es *EventStore) ListStreams(ctx context.Context) ([]string, error) {
	return es.store.ListStreamIDs(ctx)
}

// decodeRows converts stored rows into domain events, decoding payloads
// through the tagged union.
func decodeRows(rows []store.EventRow) ([]domain.Event, error) {
	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		e, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func decodeRow(row store.EventRow) (domain.Event, error) {
	payload, err := domain.DecodePayload(domain.Type(row.Type), row.Payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %s: %w", row.ID, err)
	}
	return domain.Event{
		ID:        row.ID,
		StreamID:  row.StreamID,
		Type:      domain.Type(row.Type),
		Payload:   payload,
		Version:   row.Version,
		UserID:    row.UserID,
		Timestamp: row.Timestamp,
	}, nil
}
