package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/chainvault/internal/history"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Database    string
	Content     string
	ContentFile string
	Message     string
	User        string
	AutoSave    bool
}

// SaveResult is the save command's output payload.
type SaveResult struct {
	VersionID     string    `json:"version_id"`
	DocumentID    string    `json:"document_id"`
	VersionNumber int64     `json:"version_number"`
	AutoSaved     bool      `json:"auto_saved"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <document-id>",
		Short: "Checkpoint a document's content as a new version",
		Long: `Save a full-content checkpoint for a document. The version number is
assigned automatically: one greater than the document's highest existing
number, deleted versions included.

Content comes from --content, from --content-file, or from stdin when
--content-file is "-".

Examples:
  chainvault save doc-1 --db ./vault.db --content "hello" -m "first draft"
  cat draft.md | chainvault save doc-1 --db ./vault.db --content-file -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Content, "content", "", "document content")
	cmd.Flags().StringVar(&opts.ContentFile, "content-file", "", `read content from file ("-" for stdin)`)
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "version description")
	cmd.Flags().StringVar(&opts.User, "user", "", "acting user id")
	cmd.Flags().BoolVar(&opts.AutoSave, "auto", false, "mark the version as auto-saved")

	return cmd
}

func runSave(opts *SaveOptions, documentID string, cmd *cobra.Command) error {
	content, err := resolveContent(opts, cmd.InOrStdin())
	if err != nil {
		return err
	}

	st, _, mgr, err := openEngine(opts.Database, opts.Verbose)
	if err != nil {
		return err
	}
	defer st.Close()

	v, err := mgr.CreateVersion(context.Background(), history.CreateVersionParams{
		DocumentID:  documentID,
		Content:     content,
		Description: opts.Message,
		UserID:      opts.User,
		AutoSaved:   opts.AutoSave,
	})
	if err != nil {
		return faultExit("failed to save version", err)
	}

	f := formatter(opts.RootOptions, cmd)
	result := SaveResult{
		VersionID:     v.ID,
		DocumentID:    v.DocumentID,
		VersionNumber: v.VersionNumber,
		AutoSaved:     v.AutoSaved,
		Timestamp:     v.Timestamp,
	}
	if opts.Format == "json" {
		return f.JSON(result)
	}

	fmt.Fprintf(f.Writer, "Saved version %d of %s (%s)\n", v.VersionNumber, v.DocumentID, v.ID)
	return nil
}

// resolveContent picks the content source: --content-file wins over
// --content; "-" reads stdin.
func resolveContent(opts *SaveOptions, stdin io.Reader) (string, error) {
	if opts.ContentFile == "" {
		return opts.Content, nil
	}

	var data []byte
	var err error
	if opts.ContentFile == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(opts.ContentFile)
	}
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to read content", err)
	}
	return string(data), nil
}
