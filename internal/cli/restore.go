package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	Database string
	Message  string
	User     string
}

// RestoreCmdResult holds the restore command output.
type RestoreCmdResult struct {
	Success      bool     `json:"success"`
	NewVersionID string   `json:"new_version_id,omitempty"`
	Conflicts    []string `json:"conflicts,omitempty"`
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore <document-id> <version-id>",
		Short: "Restore a document to a prior version",
		Long: `Restore a document by creating a new version carrying the target
version's content. History is never rewritten: the target stays where it
is and the new version points back to it.

Exit codes:
  0 - restored
  1 - restore refused (target belongs to another document, or is deleted)
  2 - command error (unknown version id, database errors)

Example:
  chainvault restore doc-1 0198f2a1-... --db ./vault.db -m "undo experiment"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "description for the restored version")
	cmd.Flags().StringVar(&opts.User, "user", "", "acting user id")

	return cmd
}

func runRestore(opts *RestoreOptions, documentID, versionID string, cmd *cobra.Command) error {
	st, _, mgr, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := mgr.RestoreVersion(context.Background(), documentID, versionID, opts.User, opts.Message)
	if err != nil {
		return faultExit("failed to restore version", err)
	}

	f := formatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		if err := f.JSON(RestoreCmdResult{
			Success:      res.Success,
			NewVersionID: res.NewVersionID,
			Conflicts:    res.Conflicts,
		}); err != nil {
			return err
		}
		if !res.Success {
			return NewExitError(ExitFailure, "restore refused")
		}
		return nil
	}

	if !res.Success {
		fmt.Fprintln(f.Writer, "Restore refused:")
		for _, c := range res.Conflicts {
			fmt.Fprintf(f.Writer, "  - %s\n", c)
		}
		return NewExitError(ExitFailure, "restore refused")
	}

	fmt.Fprintf(f.Writer, "Restored %s as new version %s\n", documentID, res.NewVersionID)
	return nil
}
