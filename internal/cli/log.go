package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/chainvault/internal/domain"
	"github.com/roach88/chainvault/internal/eventstore"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	Stream   string
	Type     string
	User     string
	Since    string
	Until    string
}

// LogEvent is one event in the log listing.
type LogEvent struct {
	ID        string    `json:"id"`
	StreamID  string    `json:"stream_id"`
	Type      string    `json:"type"`
	Version   int64     `json:"version"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LogResult holds the log command output.
type LogResult struct {
	Events []LogEvent `json:"events"`
	Total  int        `json:"total"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Query the event log",
		Long: `Query the append-only event log. Exactly one filter applies per
invocation: --stream lists a stream in version order; --type, --user, and
--since/--until list matching events across streams in append order.

Examples:
  chainvault log --db ./vault.db --stream doc-1
  chainvault log --db ./vault.db --type DOCUMENT_VERSION_CREATED
  chainvault log --db ./vault.db --since 2026-08-01T00:00:00Z --until 2026-09-01T00:00:00Z`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Stream, "stream", "", "list one stream's events")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter by event type")
	cmd.Flags().StringVar(&opts.User, "user", "", "filter by user id")
	cmd.Flags().StringVar(&opts.Since, "since", "", "start of time range (RFC 3339, inclusive)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "end of time range (RFC 3339, exclusive)")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	st, es, _, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	events, err := queryLog(context.Background(), es, opts)
	if err != nil {
		return err
	}

	result := LogResult{Events: make([]LogEvent, 0, len(events)), Total: len(events)}
	for _, e := range events {
		result.Events = append(result.Events, LogEvent{
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

	for _, e := range result.Events {
		fmt.Fprintf(f.Writer, "%s  %s v%d  %s", e.Timestamp.Format(time.RFC3339), e.StreamID, e.Version, e.Type)
		if e.UserID != "" {
			fmt.Fprintf(f.Writer, "  (%s)", e.UserID)
		}
		fmt.Fprintln(f.Writer)
	}
	fmt.Fprintf(f.Writer, "%d event(s)\n", result.Total)
	return nil
}

func queryLog(ctx context.Context, es *eventstore.EventStore, opts *LogOptions) ([]domain.Event, error) {
	switch {
	case opts.Stream != "":
		events, err := es.Events(ctx, opts.Stream)
		if err != nil {
			return nil, faultExit("failed to query stream", err)
		}
		return events, nil
	case opts.Type != "":
		events, err := es.EventsByType(ctx, domain.Type(opts.Type))
		if err != nil {
			return nil, faultExit("failed to query by type", err)
		}
		return events, nil
	case opts.User != "":
		events, err := es.EventsByUser(ctx, opts.User)
		if err != nil {
			return nil, faultExit("failed to query by user", err)
		}
		return events, nil
	case opts.Since != "" || opts.Until != "":
		start, end, err := parseTimeRange(opts.Since, opts.Until)
		if err != nil {
			return nil, err
		}
		events, err := es.EventsByTimeRange(ctx, start, end)
		if err != nil {
			return nil, faultExit("failed to query time range", err)
		}
		return events, nil
	default:
		return nil, NewExitError(ExitCommandError,
			"one of --stream, --type, --user, or --since/--until is required")
	}
}

func parseTimeRange(since, until string) (time.Time, time.Time, error) {
	start := time.Time{}
	end := time.Now().UTC()

	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return time.Time{}, time.Time{}, WrapExitError(ExitCommandError, "invalid --since", err)
		}
		start = t
	}
	if until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return time.Time{}, time.Time{}, WrapExitError(ExitCommandError, "invalid --until", err)
		}
		end = t
	}
	return start, end, nil
}
