package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophdash/internal/realtime"
)

// NewWatchCommand создает команду watch
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print changes made to the document by other clients",
		Long: `Connect to the document and print every change pushed by the server
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			sess, err := opts.loadSession(ctx)
			if err != nil {
				return err
			}

			doc, err := opts.connect(ctx, sess)
			if err != nil {
				return err
			}
			defer doc.Close()

			// события доставляются из потока чтения соединения
			unsubscribe := doc.manager.OnChange(func(ev realtime.ChangeEvent) {
				if ev.Source != realtime.SourceRemote {
					return
				}
				fmt.Fprintf(out, "[%s] %s\n", opts.now().Format(time.TimeOnly), ev.Type)
				printFields(out, "  ", ev.Fields)
			})
			defer unsubscribe()

			doc.session.OnReconnect(func(attempt int, version int64) {
				fmt.Fprintf(out, "[%s] Reconnected after %d attempt(s) (version %d)\n",
					opts.now().Format(time.TimeOnly), attempt, version)
			})

			fmt.Fprintf(out, "Watching document %s (version %d, %d keys)\n",
				opts.Config.Document, doc.session.Version(), len(doc.manager.State()))

			var runErr error
			select {
			case <-ctx.Done():
			case <-doc.session.Done():
				runErr = fmt.Errorf("connection lost: %w", doc.session.Err())
			}

			if err := opts.record(ctx, doc); err != nil {
				opts.Logger.Warn("Failed to save sync record", "error", err)
			}
			return runErr
		},
	}
}
