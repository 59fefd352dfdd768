package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// CleanupOptions holds flags for the cleanup command.
type CleanupOptions struct {
	*RootOptions
	Database string
	Before   string
	Force    bool
}

// CleanupResult holds the cleanup command output.
type CleanupResult struct {
	Removed int64     `json:"removed"`
	Cutoff  time.Time `json:"cutoff"`
}

// NewCleanupCommand creates the cleanup command.
func NewCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CleanupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete events older than a cutoff",
		Long: `Irreversibly delete events older than the cutoff. This is a retention
operation: it breaks full replay for the truncated prefix of every
affected stream, so it refuses to run without --force.

Example:
  chainvault cleanup --db ./vault.db --before 2026-01-01T00:00:00Z --force`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Before, "before", "", "cutoff timestamp (RFC 3339, required)")
	_ = cmd.MarkFlagRequired("before")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "confirm the irreversible deletion")

	return cmd
}

func runCleanup(opts *CleanupOptions, cmd *cobra.Command) error {
	cutoff, err := time.Parse(time.RFC3339, opts.Before)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --before", err)
	}
	if !opts.Force {
		return NewExitError(ExitCommandError, "cleanup is irreversible; re-run with --force")
	}

	st, es, _, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	removed, err := es.CleanupOldEvents(context.Background(), cutoff)
	if err != nil {
		return faultExit("cleanup failed", err)
	}

	f := formatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return f.JSON(CleanupResult{Removed: removed, Cutoff: cutoff})
	}

	fmt.Fprintf(f.Writer, "Removed %d event(s) older than %s\n", removed, cutoff.Format(time.RFC3339))
	return nil
}
