// Package server собирает HTTP сервер: маршруты, middleware, websocket hub.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/gophdash/internal/config"
	"github.com/iudanet/gophdash/internal/server/auth"
	"github.com/iudanet/gophdash/internal/server/handlers"
	"github.com/iudanet/gophdash/internal/server/hub"
	"github.com/iudanet/gophdash/internal/server/middleware"
	"github.com/iudanet/gophdash/internal/server/storage/sqlite"
)

// Маршруты API
const (
	HealthPath    = "/api/v1/health"
	DocumentsPath = "/api/v1/documents"
	WebsocketPath = "/api/v1/ws"
)

// Server HTTP + websocket сервер дашбордов
type Server struct {
	store   *sqlite.Storage
	hub     *hub.Hub
	limiter *middleware.RateLimiter
	logger  *slog.Logger
	http    *http.Server
	cfg     config.ServerConfig
}

// New открывает хранилище и собирает обработчики
func New(ctx context.Context, cfg config.ServerConfig, version string, logger *slog.Logger) (*Server, error) {
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	tokens := auth.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL)

	h := hub.New(store, hub.Config{
		PingInterval:  cfg.PingInterval,
		WriteTimeout:  cfg.WriteTimeout,
		MutationRPS:   cfg.MutationLimit.RPS,
		MutationBurst: cfg.MutationLimit.Burst,
	}, logger.With("component", "hub"))

	limiter := middleware.NewRateLimiter(cfg.HTTPRateLimit.RPS, cfg.HTTPRateLimit.Burst, logger)

	s := &Server{
		store:   store,
		hub:     h,
		limiter: limiter,
		logger:  logger,
		cfg:     cfg,
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(tokens, version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *Server) routes(tokens *auth.Service, version string) http.Handler {
	health := handlers.NewHealthHandler(s.logger, s.store, version)
	docs := handlers.NewDocumentHandler(s.logger, s.store)
	requireAuth := middleware.AuthMiddleware(s.logger, tokens)
	limit := middleware.RateLimitMiddleware(s.limiter, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+HealthPath, health.Health)
	mux.Handle("GET "+DocumentsPath, limit(requireAuth(http.HandlerFunc(docs.List))))
	mux.Handle("GET "+DocumentsPath+"/{doc}", limit(requireAuth(http.HandlerFunc(docs.Get))))
	// websocket сессии ограничиваются внутри hub по числу изменений
	mux.Handle("GET "+WebsocketPath, limit(requireAuth(s.hub)))

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(s.logger, []string{HealthPath})(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)
	return handler
}

// Handler корневой обработчик (для тестов)
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run слушает адрес до отмены ctx, затем корректно останавливается
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает соединения listener до отмены ctx
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	// hijacked websocket соединения Shutdown не закрывает
	s.hub.Close()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close освобождает ресурсы
func (s *Server) Close() error {
	s.hub.Close()
	s.limiter.Stop()
	return s.store.Close()
}

// IssueToken выпускает токен доступа (используется флагом -issue-token)
func IssueToken(cfg config.ServerConfig, user string, documents ...string) (string, int64, error) {
	return auth.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL).Issue(user, documents...)
}
