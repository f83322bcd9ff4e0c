package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/iudanet/gophdash/internal/realtime"
)

// ErrReconnectFailed возвращается, когда попытки переподключения исчерпаны
var ErrReconnectFailed = errors.New("reconnect failed")

var _ realtime.Transport = (*Session)(nil)

// ReconnectPolicy экспоненциальная задержка между попытками переподключения.
// Attempts 0 отключает переподключение.
type ReconnectPolicy struct {
	Attempts   int
	Delay      time.Duration
	Multiplier float64
	MaxDelay   time.Duration
	// Jitter доля случайного разброса задержки, 0..1
	Jitter float64
}

// Backoff задержка перед попыткой attempt (с единицы), без разброса
func (p ReconnectPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.Delay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

func (p ReconnectPolicy) delay(attempt int) time.Duration {
	d := p.Backoff(attempt)
	if p.Jitter > 0 {
		d += time.Duration(rand.Float64() * p.Jitter * float64(d))
	}
	return d
}

// ReconnectHandler вызывается после восстановления соединения и загрузки
// свежего снапшота.
type ReconnectHandler func(attempt int, version int64)

// Session держит соединение с документом для одного менеджера. После
// разрыва она переподключается по ReconnectPolicy, заново загружает снапшот
// в менеджер и снова направляет в него рассылку сервера. Запросы, пришедшие
// во время переподключения, ждут нового соединения.
type Session struct {
	ctx         context.Context
	manager     *realtime.Manager
	logger      *slog.Logger
	client      *Client
	onReconnect ReconnectHandler
	// changed закрывается и пересоздается при каждой смене client
	changed chan struct{}
	done    chan struct{}
	err     error
	cancel  context.CancelFunc
	token   string
	cfg     Config
	policy  ReconnectPolicy
	version int64
	mu      sync.Mutex
}

// NewSession создает сессию без соединения; Connect открывает его
func NewSession(cfg Config, policy ReconnectPolicy, token string, logger *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		policy:  policy,
		token:   token,
		logger:  logger,
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnReconnect регистрирует обработчик успешного переподключения
func (s *Session) OnReconnect(h ReconnectHandler) {
	s.mu.Lock()
	s.onReconnect = h
	s.mu.Unlock()
}

// Connect открывает первое соединение и загружает снапшот в m.
// Ошибка первого подключения возвращается без повторов.
func (s *Session) Connect(ctx context.Context, m *realtime.Manager) error {
	s.mu.Lock()
	if s.manager != nil {
		s.mu.Unlock()
		return fmt.Errorf("session already connected")
	}
	s.manager = m
	s.mu.Unlock()

	c, err := s.establish(ctx)
	if err != nil {
		return err
	}
	if !s.swap(c) {
		_ = c.Close()
		return s.Err()
	}
	go s.supervise(c)
	return nil
}

// establish подключается, привязывает рассылку и загружает снапшот
func (s *Session) establish(ctx context.Context) (*Client, error) {
	c, err := Dial(ctx, s.cfg, s.token, s.logger)
	if err != nil {
		return nil, err
	}
	Bind(c, s.manager)
	if _, err := Sync(ctx, c, s.manager); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to load document %s: %w", s.cfg.Document, err)
	}
	return c, nil
}

// swap делает c текущим соединением (nil на время переподключения).
// false если сессия уже закрыта.
func (s *Session) swap(c *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return false
	}
	if s.client != nil {
		s.version = s.client.Version()
	}
	s.client = c
	close(s.changed)
	s.changed = make(chan struct{})
	return true
}

// supervise ждет разрыва текущего соединения и восстанавливает его
func (s *Session) supervise(c *Client) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-c.Done():
		}

		if !s.swap(nil) {
			return
		}
		s.logger.Warn("Connection lost", "doc", s.cfg.Document, "error", c.Err())

		next, err := s.reconnect()
		if err != nil {
			s.finish(err)
			return
		}
		c = next
	}
}

func (s *Session) reconnect() (*Client, error) {
	var (
		lastErr error = ErrClosed
		attempt int
	)
	for attempt = 1; attempt <= s.policy.Attempts; attempt++ {
		delay := s.policy.delay(attempt)
		s.logger.Info("Reconnecting",
			"doc", s.cfg.Document, "attempt", attempt, "max_attempts", s.policy.Attempts, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return nil, s.ctx.Err()
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.withDefaults().RequestTimeout)
		c, err := s.establish(ctx)
		cancel()
		if err == nil {
			if !s.swap(c) {
				_ = c.Close()
				return nil, ErrClosed
			}
			s.logger.Info("Reconnected", "doc", s.cfg.Document, "attempt", attempt, "version", c.Version())

			s.mu.Lock()
			h := s.onReconnect
			s.mu.Unlock()
			if h != nil {
				h(attempt, c.Version())
			}
			return c, nil
		}

		lastErr = err
		s.logger.Warn("Reconnect attempt failed", "attempt", attempt, "error", err)
		if errors.Is(err, ErrUnauthorized) {
			break
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrReconnectFailed, min(attempt, s.policy.Attempts), lastErr)
}

// finish переводит сессию в конечное состояние
func (s *Session) finish(reason error) {
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return
	}
	s.err = reason
	c := s.client
	s.client = nil
	close(s.changed)
	s.mu.Unlock()

	s.cancel()
	close(s.done)
	if c != nil {
		_ = c.Close()
	}
}

// current возвращает живое соединение, отличное от stale, ожидая переподключения
func (s *Session) current(ctx context.Context, stale *Client) (*Client, error) {
	for {
		s.mu.Lock()
		c, changed, err := s.client, s.changed, s.err
		s.mu.Unlock()

		if err != nil {
			return nil, err
		}
		if c != nil && c != stale {
			return c, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Request реализует realtime.Transport. Если соединение рвется во время
// запроса, он повторяется на новом соединении.
func (s *Session) Request(ctx context.Context, msgType string, data realtime.State) (*realtime.Response, error) {
	var stale *Client
	for {
		c, err := s.current(ctx, stale)
		if err != nil {
			return nil, err
		}
		resp, err := NewAdapter(c).Request(ctx, msgType, data)
		if err == nil || !errors.Is(err, ErrClosed) || ctx.Err() != nil {
			return resp, err
		}
		s.logger.Debug("Request interrupted by disconnect, waiting for reconnect", "type", msgType)
		stale = c
	}
}

// Version наибольшая версия документа, известная сессии
func (s *Session) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client.Version()
	}
	return s.version
}

// Done закрывается, когда сессия закрыта или переподключение не удалось
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err причина завершения сессии
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close закрывает сессию и текущее соединение
func (s *Session) Close() error {
	s.finish(ErrClosed)
	return nil
}
