package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// BranchOptions holds flags for the branch command.
type BranchOptions struct {
	*RootOptions
	Database string
	User     string
}

// BranchResult holds the branch command output.
type BranchResult struct {
	BranchDocumentID string `json:"branch_document_id"`
	BranchVersionID  string `json:"branch_version_id"`
	BaseVersionID    string `json:"base_version_id"`
	BranchName       string `json:"branch_name"`
}

// NewBranchCommand creates the branch command.
func NewBranchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BranchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "branch <document-id> <base-version-id> <name>",
		Short: "Fork a document at a chosen version",
		Long: `Create a branch: a new document whose version 1 copies the base
version's content and links back to it. The branch then versions
independently of the source document.

Example:
  chainvault branch doc-1 0198f2a1-... experiment --db ./vault.db`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBranch(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.User, "user", "", "acting user id")

	return cmd
}

func runBranch(opts *BranchOptions, documentID, baseVersionID, name string, cmd *cobra.Command) error {
	st, _, mgr, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	v, err := mgr.CreateBranch(context.Background(), documentID, baseVersionID, name, opts.User)
	if err != nil {
		return faultExit("failed to create branch", err)
	}

	f := formatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return f.JSON(BranchResult{
			BranchDocumentID: v.DocumentID,
			BranchVersionID:  v.ID,
			BaseVersionID:    baseVersionID,
			BranchName:       name,
		})
	}

	fmt.Fprintf(f.Writer, "Created branch %q: document %s (version 1: %s)\n", name, v.DocumentID, v.ID)
	return nil
}
