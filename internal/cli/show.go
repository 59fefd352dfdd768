package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	MetaOnly bool
}

// ShowResult holds the show command output.
type ShowResult struct {
	VersionID       string     `json:"version_id"`
	DocumentID      string     `json:"document_id"`
	VersionNumber   int64      `json:"version_number"`
	Description     string     `json:"description,omitempty"`
	AutoSaved       bool       `json:"auto_saved"`
	ParentVersionID string     `json:"parent_version_id,omitempty"`
	UserID          string     `json:"user_id,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	Content         string     `json:"content,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <version-id>",
		Short: "Show a single version",
		Long: `Show a version's metadata and content. Soft-deleted versions are
shown too, flagged with their deletion time.

Examples:
  chainvault show 0198f2a1-... --db ./vault.db
  chainvault show 0198f2a1-... --db ./vault.db --meta`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.MetaOnly, "meta", false, "omit content")

	return cmd
}

func runShow(opts *ShowOptions, versionID string, cmd *cobra.Command) error {
	st, _, mgr, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	v, err := mgr.GetVersion(context.Background(), versionID)
	if err != nil {
		return faultExit("failed to load version", err)
	}

	result := ShowResult{
		VersionID:       v.ID,
		DocumentID:      v.DocumentID,
		VersionNumber:   v.VersionNumber,
		Description:     v.Description,
		AutoSaved:       v.AutoSaved,
		ParentVersionID: v.ParentVersionID,
		UserID:          v.UserID,
		Timestamp:       v.Timestamp,
		DeletedAt:       v.DeletedAt,
	}
	if !opts.MetaOnly {
		result.Content = v.Content
	}

	f := formatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return f.JSON(result)
	}

	fmt.Fprintf(f.Writer, "Version %d of %s (%s)\n", v.VersionNumber, v.DocumentID, v.ID)
	if v.Description != "" {
		fmt.Fprintf(f.Writer, "Description: %s\n", v.Description)
	}
	if v.ParentVersionID != "" {
		fmt.Fprintf(f.Writer, "Parent: %s\n", v.ParentVersionID)
	}
	if v.Deleted() {
		fmt.Fprintf(f.Writer, "Deleted: %s\n", v.DeletedAt.Format(time.RFC3339))
	}
	if !opts.MetaOnly {
		fmt.Fprintln(f.Writer)
		fmt.Fprintln(f.Writer, v.Content)
	}
	return nil
}
