package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Database string
	User     string
}

// DeleteResult holds the delete command output.
type DeleteResult struct {
	VersionID string `json:"version_id"`
	Deleted   bool   `json:"deleted"`
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <version-id>",
		Short: "Soft-delete a version",
		Long: `Soft-delete a version: it disappears from history listings but keeps
its row and its number, and stays reachable by id. There is no undelete.

Exit codes:
  0 - deleted
  1 - nothing to delete (unknown id or already deleted)

Example:
  chainvault delete 0198f2a1-... --db ./vault.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.User, "user", "", "acting user id")

	return cmd
}

func runDelete(opts *DeleteOptions, versionID string, cmd *cobra.Command) error {
	st, _, mgr, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	deleted, err := mgr.DeleteVersion(context.Background(), versionID, opts.User)
	if err != nil {
		return faultExit("failed to delete version", err)
	}

	f := formatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		if err := f.JSON(DeleteResult{VersionID: versionID, Deleted: deleted}); err != nil {
			return err
		}
		if !deleted {
			return NewExitError(ExitFailure, "nothing to delete")
		}
		return nil
	}

	if !deleted {
		fmt.Fprintf(f.Writer, "Nothing to delete: %s is unknown or already deleted\n", versionID)
		return NewExitError(ExitFailure, "nothing to delete")
	}

	fmt.Fprintf(f.Writer, "Deleted version %s\n", versionID)
	return nil
}
