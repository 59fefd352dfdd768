// Package history maintains per-document version history on top of the
// event store: full-content checkpoints with strictly increasing numbers,
// diffs between any two checkpoints, restore, soft delete, and
// branch/merge.
//
// The manager owns the version table and is a client of the event store:
// every mutating operation also emits an audit event on the document's
// stream. It never interprets another component's event streams.
package history

import (
	"context"
	"log/slog"

	"github.com/roach88/chainvault/internal/domain"
	"github.com/roach88/chainvault/internal/eventstore"
	"github.com/roach88/chainvault/internal/metrics"
	"github.com/roach88/chainvault/internal/store"
)

// emitAttempts bounds the append retry loop in emit. Contention on a
// single document's stream is rare; three attempts is plenty before
// surfacing the conflict to the caller.
const emitAttempts = 3

// Manager is the version history engine for documents.
//
// Thread-safety: safe for concurrent use. Version number assignment is
// serialized per document inside the storage transaction.
type Manager struct {
	store  *store.Store
	events *eventstore.EventStore
	ids    domain.IDGenerator
	clock  domain.Clock
	log    *slog.Logger
	met    *metrics.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithIDGenerator overrides the id generator for versions and branch
// documents (tests use domain.FixedGenerator).
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(m *Manager) { m.ids = g }
}

// WithClock overrides the timestamp source.
func WithClock(c domain.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithMetrics enables Prometheus collection.
func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Manager) { m.met = met }
}

// NewManager creates a Manager over the given storage handle and event
// store.
func NewManager(s *store.Store, es *eventstore.EventStore, opts ...Option) *Manager {
	m := &Manager{
		store:  s,
		events: es,
		ids:    domain.UUIDv7Generator{},
		clock:  domain.SystemClock{},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// emit appends one audit event on a document's stream, following the
// event store's documented retry policy: re-fetch the latest version,
// recompute, retry on conflict. Gives up after emitAttempts.
func (m *Manager) emit(ctx context.Context, streamID string, t domain.Type, p domain.Payload, userID string) error {
	var lastErr error
	for attempt := 0; attempt < emitAttempts; attempt++ {
		latest, err := m.events.LatestVersion(ctx, streamID)
		if err != nil {
			return err
		}

		err = m.events.Append(ctx, []domain.Input{{
			StreamID: streamID,
			Type:     t,
			Payload:  p,
			Version:  latest + 1,
			UserID:   userID,
		}})
		if err == nil {
			return nil
		}
		if !domain.IsConflict(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
