package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chainvault/internal/domain"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	Database string
	Strategy string
	User     string
}

// MergeCmdResult holds the merge command output.
type MergeCmdResult struct {
	Success      bool   `json:"success"`
	NewVersionID string `json:"new_version_id,omitempty"`
	Strategy     string `json:"strategy"`
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge <main-document-id> <branch-document-id>",
		Short: "Merge a branch back into its source document",
		Long: `Merge a branch into a main document by creating a new version on main:

  theirs - the new version carries the branch's latest content
  ours   - the new version keeps main's latest content (audit only)
  manual - content was resolved externally; record a merge marker

Divergent edits are not reconciled; there is no three-way merge.

Exit codes:
  0 - merged
  1 - nothing to merge (either document has no active versions)

Example:
  chainvault merge doc-1 doc-7 --strategy theirs --db ./vault.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "theirs", "merge strategy (theirs|ours|manual)")
	cmd.Flags().StringVar(&opts.User, "user", "", "acting user id")

	return cmd
}

func runMerge(opts *MergeOptions, mainID, branchID string, cmd *cobra.Command) error {
	st, _, mgr, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := mgr.MergeBranch(context.Background(), mainID, branchID, opts.User,
		domain.MergeStrategy(opts.Strategy))
	if err != nil {
		return faultExit("failed to merge branch", err)
	}

	f := formatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		if err := f.JSON(MergeCmdResult{
			Success:      res.Success,
			NewVersionID: res.NewVersionID,
			Strategy:     opts.Strategy,
		}); err != nil {
			return err
		}
		if !res.Success {
			return NewExitError(ExitFailure, "nothing to merge")
		}
		return nil
	}

	if !res.Success {
		fmt.Fprintln(f.Writer, "Nothing to merge: either document has no active versions")
		return NewExitError(ExitFailure, "nothing to merge")
	}

	fmt.Fprintf(f.Writer, "Merged %s into %s (%s): new version %s\n",
		branchID, mainID, opts.Strategy, res.NewVersionID)
	return nil
}
