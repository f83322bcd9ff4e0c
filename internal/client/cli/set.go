package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophdash/internal/realtime"
	"github.com/iudanet/gophdash/internal/validation"
)

// NewSetCommand создает команду set
func NewSetCommand(opts *RootOptions) *cobra.Command {
	var (
		widget  string
		retries int
	)

	cmd := &cobra.Command{
		Use:   "set key=value [key=value...]",
		Short: "Apply a change optimistically and send it to the server",
		Long: `Apply a change to the document and wait for the server to confirm it.

Values are parsed as JSON when possible, otherwise taken as strings:
  gophdash set theme=dark refresh=30 'tags=["prod","eu"]'

With --widget the assignments replace the configuration of one widget:
  gophdash set --widget cpu title=CPU interval=5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			values, err := parseAssignments(args)
			if err != nil {
				return err
			}

			var payload realtime.Payload = realtime.Patch{Values: values}
			if widget != "" {
				if err := validation.ValidateStateKey(realtime.WidgetKey(widget)); err != nil {
					return fmt.Errorf("invalid widget id: %w", err)
				}
				payload = realtime.WidgetUpdate{WidgetID: widget, Config: values}
			}

			sess, err := opts.loadSession(ctx)
			if err != nil {
				return err
			}

			doc, err := opts.connect(ctx, sess)
			if err != nil {
				return err
			}
			defer doc.Close()

			var applyOpts []realtime.OperationOption
			if retries >= 0 {
				applyOpts = append(applyOpts, realtime.WithMaxRetries(retries))
			}
			id := doc.manager.Apply(payload, applyOpts...)
			sendErr := doc.send(ctx, id)

			for _, c := range doc.manager.ConflictsFor(id) {
				fmt.Fprintf(out, "Conflict on %s: local %s, remote %s\n",
					c.Field, formatValue(c.LocalValue), formatValue(c.RemoteValue))
			}

			if err := opts.record(ctx, doc); err != nil {
				opts.Logger.Warn("Failed to save sync record", "error", err)
			}

			if sendErr != nil {
				fmt.Fprintf(out, "Rolled back %s\n", id)
				return sendErr
			}

			fmt.Fprintf(out, "Confirmed %s (document %s, version %d)\n", id, opts.Config.Document, doc.session.Version())
			printFields(out, "  ", payload.Fields())
			return nil
		},
	}

	cmd.Flags().StringVar(&widget, "widget", "", "update the configuration of this widget")
	cmd.Flags().IntVar(&retries, "retries", -1, "max send retries (default from config)")

	return cmd
}
