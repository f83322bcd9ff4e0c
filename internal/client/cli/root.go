package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophdash/internal/client/api"
	"github.com/iudanet/gophdash/internal/client/storage"
	"github.com/iudanet/gophdash/internal/client/storage/boltdb"
	"github.com/iudanet/gophdash/internal/config"
	"github.com/iudanet/gophdash/internal/logger"
	"github.com/iudanet/gophdash/internal/realtime"
)

// BuildInfo версия клиента, задается через ldflags
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// RootOptions глобальные флаги и общие зависимости команд
type RootOptions struct {
	Logger *slog.Logger
	now    func() time.Time

	ConfigPath string
	Server     string
	DBPath     string
	Document   string
	Config     config.ClientConfig
}

// NewRootCommand создает корневую команду клиента
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &RootOptions{now: time.Now}

	cmd := &cobra.Command{
		Use:   "gophdash",
		Short: "GophDash dashboard client",
		Long: `Command line client for a GophDash server.

Changes are applied optimistically, sent over a websocket connection
and confirmed or rolled back by the server.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("GophDash Client\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n",
		info.Version, info.BuildDate, info.GitCommit))

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", "", "server URL (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to local database (overrides config)")
	cmd.PersistentFlags().StringVarP(&opts.Document, "doc", "d", "", "document id (overrides config)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewDocumentsCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// load собирает конфигурацию: файл и окружение, затем флаги
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadClient(o.ConfigPath)
	if err != nil {
		return err
	}

	if o.Server != "" {
		cfg.Server = o.Server
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	if o.Document != "" {
		cfg.Document = o.Document
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	o.Config = cfg
	o.Logger = log
	return nil
}

// openStorage открывает локальную базу; закрывать вызывающему
func (o *RootOptions) openStorage(ctx context.Context) (*boltdb.Storage, error) {
	store, err := boltdb.New(ctx, o.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// loadSession возвращает действующую сессию входа.
// База открыта только на время чтения, watch не должен держать блокировку файла.
func (o *RootOptions) loadSession(ctx context.Context) (*storage.Session, error) {
	store, err := o.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return o.activeSession(ctx, store)
}

// activeSession читает сессию и проверяет срок действия токена
func (o *RootOptions) activeSession(ctx context.Context, store storage.SessionStorage) (*storage.Session, error) {
	sess, err := store.GetSession(ctx)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return nil, fmt.Errorf("not logged in, run 'gophdash login --token <token>' first")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.Expired(o.now()) {
		return nil, fmt.Errorf("session expired at %s, please login again", sess.ExpiresAt.Format(time.RFC3339))
	}
	return sess, nil
}

func (o *RootOptions) apiClient(sess *storage.Session) *api.Client {
	if sess != nil && sess.Server != "" && o.Server == "" {
		return api.NewClient(sess.Server)
	}
	return api.NewClient(o.Config.Server)
}

func (o *RootOptions) newManager(opts ...realtime.Option) *realtime.Manager {
	base := []realtime.Option{
		realtime.WithLogger(o.Logger),
		realtime.WithConfirmedRetention(o.Config.ConfirmedRetention),
		realtime.WithDefaultMaxRetries(o.Config.MaxRetries),
	}
	return realtime.NewManager(append(base, opts...)...)
}
