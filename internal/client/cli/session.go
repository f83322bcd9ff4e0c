package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/iudanet/gophdash/internal/client/storage"
)

// tokenClaims поля токена, нужные клиенту; подпись проверяет сервер
type tokenClaims struct {
	jwt.RegisteredClaims
	Documents []string `json:"docs,omitempty"`
}

// parseToken читает claims без проверки подписи
func parseToken(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("malformed token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("malformed token: missing subject")
	}
	return claims, nil
}

// NewLoginCommand создает команду login
func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save an access token issued by the server",
		Long: `Verify an access token against the server and store it locally.

Tokens are issued by the server operator with 'gophdash-server -issue-token <user>'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			claims, err := parseToken(token)
			if err != nil {
				return err
			}

			client := opts.apiClient(nil)
			if _, err := client.ListDocuments(ctx, token); err != nil {
				return fmt.Errorf("server rejected token: %w", err)
			}

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			sess := &storage.Session{
				Server:      client.BaseURL(),
				User:        claims.Subject,
				AccessToken: token,
				Documents:   claims.Documents,
			}
			if claims.ExpiresAt != nil {
				sess.ExpiresAt = claims.ExpiresAt.Time
			}
			if err := store.SaveSession(ctx, sess); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged in as %s at %s\n", sess.User, sess.Server)
			if !sess.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "Token expires: %s\n", sess.ExpiresAt.Local().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "access token")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

// NewLogoutCommand создает команду logout
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			err = store.DeleteSession(cmd.Context())
			if errors.Is(err, storage.ErrSessionNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// NewStatusCommand создает команду status
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show login and last sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := store.GetSession(ctx)
			switch {
			case errors.Is(err, storage.ErrSessionNotFound):
				sess = nil
				fmt.Fprintln(out, "Status: not logged in")
			case err != nil:
				return fmt.Errorf("failed to load session: %w", err)
			default:
				state := "active"
				if sess.Expired(opts.now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "Status: logged in (%s)\n", state)
				fmt.Fprintf(out, "User:   %s\n", sess.User)
				fmt.Fprintf(out, "Server: %s\n", sess.Server)
				if !sess.ExpiresAt.IsZero() {
					fmt.Fprintf(out, "Expires: %s\n", sess.ExpiresAt.Local().Format(time.RFC3339))
				}
			}

			client := opts.apiClient(sess)
			healthCtx, cancel := context.WithTimeout(ctx, opts.Config.RequestTimeout)
			health, err := client.Health(healthCtx)
			cancel()
			if err != nil {
				fmt.Fprintf(out, "Server status: unreachable (%v)\n", err)
			} else {
				fmt.Fprintf(out, "Server status: %s (version %s)\n", health.Status, health.Version)
			}

			records, err := store.ListSyncRecords(ctx)
			if err != nil {
				return fmt.Errorf("failed to load sync records: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No documents synced yet")
				return nil
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-20s %-8s %-8s %-9s %s\n", "DOCUMENT", "VERSION", "PENDING", "CONFLICTS", "LAST SYNC")
			for _, r := range records {
				fmt.Fprintf(out, "%-20s %-8d %-8d %-9d %s\n",
					r.Document, r.Version, r.Pending, r.Conflict, r.At.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}
