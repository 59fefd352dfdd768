package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chainvault/internal/domain"
	"github.com/roach88/chainvault/internal/eventstore"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Stream   string // optional - specific stream only
}

// ReplayStreamResult holds the replay result for a single stream.
type ReplayStreamResult struct {
	StreamID      string `json:"stream_id"`
	StreamType    string `json:"stream_type"`
	Events        int64  `json:"events"`
	Fingerprint   string `json:"fingerprint"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Streams          []ReplayStreamResult `json:"streams"`
	TotalStreams     int                  `json:"total_streams"`
	AllDeterministic bool                 `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay event streams and verify determinism",
		Long: `Replay every stream (or one stream) from version 1 twice and compare
state fingerprints. Replay is a pure fold, so both passes must produce
byte-identical canonical state; a mismatch means corruption or a
non-deterministic reducer.

Exit codes:
  0 - all streams replayed deterministically
  1 - fingerprint mismatch detected
  2 - command error (database not found, etc.)

Examples:
  chainvault replay --db ./vault.db
  chainvault replay --db ./vault.db --stream doc-1
  chainvault replay --db ./vault.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Stream, "stream", "", "replay specific stream only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, es, _, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	var streamIDs []string
	if opts.Stream != "" {
		streamIDs = []string{opts.Stream}
	} else {
		streamIDs, err = es.ListStreams(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list streams", err)
		}
	}

	f := formatter(opts.RootOptions, cmd)
	if len(streamIDs) == 0 {
		if opts.Format == "json" {
			return f.JSON(ReplayResult{Streams: []ReplayStreamResult{}, AllDeterministic: true})
		}
		fmt.Fprintln(f.Writer, "No streams found in database.")
		return nil
	}

	result := ReplayResult{
		Streams:          make([]ReplayStreamResult, 0, len(streamIDs)),
		TotalStreams:     len(streamIDs),
		AllDeterministic: true,
	}
	for _, id := range streamIDs {
		streamResult, err := replayAndVerifyStream(ctx, es, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay stream %s", id), err)
		}
		result.Streams = append(result.Streams, streamResult)
		if !streamResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		if err := f.JSON(result); err != nil {
			return err
		}
		if !result.AllDeterministic {
			return NewExitError(ExitFailure, "determinism verification failed")
		}
		return nil
	}
	return outputReplayText(f, result, opts.Verbose)
}

// replayAndVerifyStream replays a single stream twice and compares state
// fingerprints.
func replayAndVerifyStream(ctx context.Context, es *eventstore.EventStore, streamID string) (ReplayStreamResult, error) {
	streamType, err := inferStreamType(ctx, es, streamID)
	if err != nil {
		return ReplayStreamResult{}, err
	}

	first, err := es.Replay(ctx, streamID, streamType)
	if err != nil {
		return ReplayStreamResult{}, fmt.Errorf("first replay failed: %w", err)
	}
	second, err := es.Replay(ctx, streamID, streamType)
	if err != nil {
		return ReplayStreamResult{}, fmt.Errorf("second replay failed: %w", err)
	}

	fp1, err := eventstore.Fingerprint(first)
	if err != nil {
		return ReplayStreamResult{}, err
	}
	fp2, err := eventstore.Fingerprint(second)
	if err != nil {
		return ReplayStreamResult{}, err
	}

	latest, err := es.LatestVersion(ctx, streamID)
	if err != nil {
		return ReplayStreamResult{}, err
	}

	return ReplayStreamResult{
		StreamID:      streamID,
		StreamType:    string(streamType),
		Events:        latest,
		Fingerprint:   fp1,
		Deterministic: fp1 == fp2,
	}, nil
}

// inferStreamType derives a stream's type from its first event. Streams
// whose first event type is unknown default to document, the most common
// stream kind.
func inferStreamType(ctx context.Context, es *eventstore.EventStore, streamID string) (domain.StreamType, error) {
	events, err := es.Events(ctx, streamID)
	if err != nil {
		return "", err
	}
	for _, e := range events {
		if t := domain.StreamTypeFor(e.Type); t != "" {
			return t, nil
		}
	}
	return domain.StreamDocument, nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(f *OutputFormatter, result ReplayResult, verbose bool) error {
	fmt.Fprintf(f.Writer, "Replay Summary: %d stream(s)\n\n", result.TotalStreams)

	for _, s := range result.Streams {
		status := "ok"
		if !s.Deterministic {
			status = "MISMATCH"
		}
		fmt.Fprintf(f.Writer, "[%s] %s (%s): %d event(s)\n", status, s.StreamID, s.StreamType, s.Events)
		if verbose {
			fmt.Fprintf(f.Writer, "  fingerprint: %s\n", s.Fingerprint)
		}
	}

	fmt.Fprintln(f.Writer)
	if result.AllDeterministic {
		fmt.Fprintln(f.Writer, "All streams verified deterministic")
		return nil
	}
	fmt.Fprintln(f.Writer, "Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
