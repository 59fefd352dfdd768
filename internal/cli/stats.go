package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Database string
}

// StatsTypeCount is one per-type count in the stats output.
type StatsTypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// StatsResult holds the stats command output.
type StatsResult struct {
	TotalEvents  int64            `json:"total_events"`
	EventsByType []StatsTypeCount `json:"events_by_type"`
	RecentEvents []LogEvent       `json:"recent_events"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show event log statistics",
		Long: `Show aggregate event log statistics: total events, counts per type,
and the most recent events.

Example:
  chainvault stats --db ./vault.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	st, es, _, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := es.Stats(context.Background())
	if err != nil {
		return faultExit("failed to collect stats", err)
	}

	result := StatsResult{
		TotalEvents:  stats.TotalEvents,
		EventsByType: make([]StatsTypeCount, 0, len(stats.EventsByType)),
		RecentEvents: make([]LogEvent, 0, len(stats.RecentEvents)),
	}
	for _, tc := range stats.EventsByType {
		result.EventsByType = append(result.EventsByType, StatsTypeCount{Type: tc.Type, Count: tc.Count})
	}
	for _, e := range stats.RecentEvents {
		result.RecentEvents = append(result.RecentEvents, LogEvent{
			ID:        e.ID,
			StreamID:  e.StreamID,
			Type:      string(e.Type),
			Version:   e.Version,
			UserID:    e.UserID,
			Timestamp: e.Timestamp,
		})
	}

	f := formatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return f.JSON(result)
	}

	fmt.Fprintf(f.Writer, "Total events: %d\n\n", result.TotalEvents)
	fmt.Fprintln(f.Writer, "By type:")
	for _, tc := range result.EventsByType {
		fmt.Fprintf(f.Writer, "  %-30s %d\n", tc.Type, tc.Count)
	}
	if len(result.RecentEvents) > 0 {
		fmt.Fprintln(f.Writer, "\nRecent:")
		for _, e := range result.RecentEvents {
			fmt.Fprintf(f.Writer, "  %s  %s v%d  %s\n",
				e.Timestamp.Format(time.RFC3339), e.StreamID, e.Version, e.Type)
		}
	}
	return nil
}
