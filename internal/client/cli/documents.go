package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDocumentsCommand создает команду documents
func NewDocumentsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List documents available to the current token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sess, err := opts.loadSession(ctx)
			if err != nil {
				return err
			}

			docs, err := opts.apiClient(sess).ListDocuments(ctx, sess.AccessToken)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents")
				return nil
			}
			fmt.Fprintf(out, "%-20s %-8s %s\n", "DOCUMENT", "VERSION", "FIELDS")
			for _, d := range docs {
				fmt.Fprintf(out, "%-20s %-8d %d\n", d.ID, d.Version, d.Fields)
			}
			return nil
		},
	}
}

// NewGetCommand создает команду get
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get [path]",
		Short: "Print the confirmed document state or a value at a dot path",
		Long: `Print the confirmed state of the document.

With a path argument only the value at that path is printed. Paths walk
nested objects and arrays: "widget:cpu.config.thresholds.0".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sess, err := opts.loadSession(ctx)
			if err != nil {
				return err
			}

			snap, err := opts.apiClient(sess).Snapshot(ctx, sess.AccessToken, opts.Config.Document, 0)
			if err != nil {
				return err
			}

			m := opts.newManager()
			defer m.Clear()
			m.Initialize(snap.State)

			if len(args) == 0 {
				return printJSON(cmd.OutOrStdout(), m.State())
			}

			v, ok := m.StateValue(args[0])
			if !ok {
				return fmt.Errorf("no value at %q in document %s", args[0], opts.Config.Document)
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}
