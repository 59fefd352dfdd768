// Package metrics provides Prometheus metrics for the chainvault engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors. Components accept a *Metrics
// and treat nil as "collection disabled", so tests and library embedders
// don't pay for registration.
type Metrics struct {
	// Event store
	EventsAppendedTotal  *prometheus.CounterVec
	AppendConflictsTotal prometheus.Counter
	ReplaysTotal         *prometheus.CounterVec
	SnapshotsWrittenTotal prometheus.Counter
	EventsCleanedTotal   prometheus.Counter

	// Version history
	VersionsCreatedTotal *prometheus.CounterVec
	RestoresTotal        prometheus.Counter
	DeletesTotal         prometheus.Counter
	BranchesTotal        prometheus.Counter
	MergesTotal          *prometheus.CounterVec
	DiffsTotal           prometheus.Counter
}

// New creates and registers all collectors on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers all collectors on reg. Tests pass a fresh
// registry to avoid duplicate registration across cases.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsAppendedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainvault_events_appended_total",
				Help: "Total number of events appended to the log",
			},
			[]string{"type"},
		),
		AppendConflictsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chainvault_append_conflicts_total",
				Help: "Total number of appends rejected by the optimistic concurrency check",
			},
		),
		ReplaysTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainvault_replays_total",
				Help: "Total number of stream replays",
			},
			[]string{"stream_type"},
		),
		SnapshotsWrittenTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chainvault_snapshots_written_total",
				Help: "Total number of snapshot upserts",
			},
		),
		EventsCleanedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chainvault_events_cleaned_total",
				Help: "Total number of events removed by retention cleanup",
			},
		),
		VersionsCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainvault_versions_created_total",
				Help: "Total number of document versions created",
			},
			[]string{"auto_saved"},
		),
		RestoresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chainvault_restores_total",
				Help: "Total number of successful version restores",
			},
		),
		DeletesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chainvault_version_deletes_total",
				Help: "Total number of version soft deletes",
			},
		),
		BranchesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chainvault_branches_total",
				Help: "Total number of branches created",
			},
		),
		MergesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainvault_merges_total",
				Help: "Total number of successful branch merges",
			},
			[]string{"strategy"},
		),
		DiffsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chainvault_diffs_total",
				Help: "Total number of version diffs computed",
			},
		),
	}
}
