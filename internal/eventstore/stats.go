package eventstore

import (
	"context"

	"github.com/roach88/chainvault/internal/domain"
	"github.com/roach88/chainvault/internal/store"
)

// Stats aggregates event counts for observability: the log's total size,
// per-type counts, and the most recent events.
type Stats struct {
	TotalEvents  int64
	EventsByType []store.TypeCount
	RecentEvents []domain.Event
}

// Stats returns aggregate counts plus the most recent events, newest
// first.
func (es *EventStore) Stats(ctx context.Context) (*Stats, error) {
	total, err := es.store.CountEvents(ctx)
	if err != nil {
		return nil, err
	}

	byType, err := es.store.CountEventsByType(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := es.store.RecentEvents(ctx, recentEventLimit)
	if err != nil {
		return nil, err
	}
	recent, err := decodeRows(rows)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalEvents:  total,
		EventsByType: byType,
		RecentEvents: recent,
	}, nil
}
