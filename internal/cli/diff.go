package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Database string
}

// DiffResult holds the diff command output.
type DiffResult struct {
	VersionID1 string   `json:"version_id_1"`
	VersionID2 string   `json:"version_id_2"`
	Added      []string `json:"added"`
	Removed    []string `json:"removed"`
	Unchanged  []string `json:"unchanged"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <version-id-1> <version-id-2>",
		Short: "Classify line changes between two versions",
		Long: `Compare two versions line by line, classifying each line as added,
removed, or unchanged by value. This is a content classification, not a
minimal edit script: a line that merely moved counts as unchanged.

Example:
  chainvault diff 0198f2a1-... 0198f2b4-... --db ./vault.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runDiff(opts *DiffOptions, id1, id2 string, cmd *cobra.Command) error {
	st, _, mgr, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	d, err := mgr.GetVersionDiff(context.Background(), id1, id2)
	if err != nil {
		return faultExit("failed to diff versions", err)
	}

	f := formatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return f.JSON(DiffResult{
			VersionID1: id1,
			VersionID2: id2,
			Added:      d.Added,
			Removed:    d.Removed,
			Unchanged:  d.Unchanged,
		})
	}

	for _, l := range d.Removed {
		fmt.Fprintf(f.Writer, "- %s\n", l)
	}
	for _, l := range d.Added {
		fmt.Fprintf(f.Writer, "+ %s\n", l)
	}
	if opts.Verbose {
		for _, l := range d.Unchanged {
			fmt.Fprintf(f.Writer, "  %s\n", l)
		}
	}
	fmt.Fprintf(f.Writer, "%d added, %d removed, %d unchanged\n",
		len(d.Added), len(d.Removed), len(d.Unchanged))
	return nil
}
