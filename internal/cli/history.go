package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Offset   int
}

// HistoryEntry is one version row in the listing.
type HistoryEntry struct {
	VersionID     string    `json:"version_id"`
	VersionNumber int64     `json:"version_number"`
	Description   string    `json:"description,omitempty"`
	AutoSaved     bool      `json:"auto_saved"`
	UserID        string    `json:"user_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// HistoryResult holds the history command output.
type HistoryResult struct {
	DocumentID string         `json:"document_id"`
	Total      int64          `json:"total"`
	Versions   []HistoryEntry `json:"versions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <document-id>",
		Short: "List a document's versions, newest first",
		Long: `List a document's active versions in descending version order.
Soft-deleted versions are excluded from the listing and the total.

Examples:
  chainvault history doc-1 --db ./vault.db
  chainvault history doc-1 --db ./vault.db --limit 10 --offset 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "versions to skip")

	return cmd
}

func runHistory(opts *HistoryOptions, documentID string, cmd *cobra.Command) error {
	st, _, mgr, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	h, err := mgr.GetVersionHistory(context.Background(), documentID, opts.Limit, opts.Offset)
	if err != nil {
		return faultExit("failed to list history", err)
	}

	result := HistoryResult{
		DocumentID: documentID,
		Total:      h.Total,
		Versions:   make([]HistoryEntry, 0, len(h.Versions)),
	}
	for _, v := range h.Versions {
		result.Versions = append(result.Versions, HistoryEntry{
			VersionID:     v.ID,
			VersionNumber: v.VersionNumber,
			Description:   v.Description,
			AutoSaved:     v.AutoSaved,
			UserID:        v.UserID,
			Timestamp:     v.Timestamp,
		})
	}

	f := formatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return f.JSON(result)
	}

	fmt.Fprintf(f.Writer, "History for %s: %d version(s)\n", documentID, result.Total)
	for _, e := range result.Versions {
		marker := ""
		if e.AutoSaved {
			marker = " [auto]"
		}
		fmt.Fprintf(f.Writer, "  v%d  %s%s", e.VersionNumber, e.VersionID, marker)
		if e.Description != "" {
			fmt.Fprintf(f.Writer, "  %s", e.Description)
		}
		fmt.Fprintln(f.Writer)
	}
	return nil
}
