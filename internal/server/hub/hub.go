// Package hub обслуживает websocket сессии клиентов дашборда:
// снапшоты, запись изменений с ACK/NACK и рассылку остальным участникам документа.
package hub

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/iudanet/gophdash/internal/server/auth"
	"github.com/iudanet/gophdash/internal/server/storage"
	"github.com/iudanet/gophdash/internal/validation"
	"github.com/iudanet/gophdash/pkg/api"
)

// DocumentQueryParam параметр запроса с идентификатором документа
const DocumentQueryParam = "doc"

// Config настройки websocket сессий
type Config struct {
	// PingInterval период websocket ping; 0 отключает ping и read deadline
	PingInterval time.Duration
	// WriteTimeout для одной записи в соединение
	WriteTimeout time.Duration
	// SendBuffer размер очереди исходящих сообщений сессии
	SendBuffer int
	// MaxMessageSize ограничение размера входящего сообщения
	MaxMessageSize int64
	// MutationRPS и MutationBurst ограничивают изменения в рамках одной сессии
	MutationRPS   float64
	MutationBurst int
}

// DefaultConfig returns default hub configuration.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		SendBuffer:     256,
		MaxMessageSize: 1 << 20,
		MutationRPS:    50,
		MutationBurst:  100,
	}
}

// room сессии одного документа.
// applyMu упорядочивает запись и рассылку, чтобы участники видели версии по возрастанию.
type room struct {
	sessions map[*session]struct{}
	applyMu  sync.Mutex
}

// Hub реестр websocket сессий по документам
type Hub struct {
	store    storage.DocumentStorage
	logger   *slog.Logger
	rooms    map[string]*room
	now      func() time.Time
	upgrader websocket.Upgrader
	cfg      Config
	nextID   atomic.Uint64
	mu       sync.RWMutex
	closed   bool
}

// New создает hub поверх хранилища документов
func New(store storage.DocumentStorage, cfg Config, logger *slog.Logger) *Hub {
	def := DefaultConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.MutationRPS <= 0 || cfg.MutationBurst <= 0 {
		cfg.MutationRPS, cfg.MutationBurst = def.MutationRPS, def.MutationBurst
	}

	return &Hub{
		store:  store,
		logger: logger,
		cfg:    cfg,
		rooms:  make(map[string]*room),
		now:    time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// токен проверяется middleware, origin не ограничиваем
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP принимает websocket соединение для документа ?doc=.
// Должен стоять за AuthMiddleware.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	doc := r.URL.Query().Get(DocumentQueryParam)
	if err := validation.ValidateDocumentID(doc); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !claims.CanAccess(doc) {
		h.logger.Warn("Document access denied", "user", claims.User(), "doc", doc)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}

	s := newSession(h, conn, claims.User(), doc)
	if !h.register(s) {
		s.closeWith(websocket.CloseGoingAway, "server shutting down")
		return
	}

	h.logger.Info("Session opened", "session_id", s.id, "user", s.user, "doc", doc)

	s.enqueue(&api.Message{
		Type:      api.TypeConnect,
		ID:        h.messageID(),
		Document:  doc,
		Timestamp: h.now(),
		Data:      map[string]any{"session_id": s.id, "user": s.user},
	})

	go s.writePump()
	s.readPump(r.Context())

	h.unregister(s)
	h.logger.Info("Session closed", "session_id", s.id, "user", s.user, "doc", doc)
}

func (h *Hub) register(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	rm, ok := h.rooms[s.doc]
	if !ok {
		rm = &room{sessions: make(map[*session]struct{})}
		h.rooms[s.doc] = rm
	}
	rm.sessions[s] = struct{}{}
	s.room = rm
	return true
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if rm, ok := h.rooms[s.doc]; ok {
		delete(rm.sessions, s)
		if len(rm.sessions) == 0 {
			delete(h.rooms, s.doc)
		}
	}
	h.mu.Unlock()

	s.close()
}

// broadcast отправляет сообщение всем сессиям документа, кроме except
func (h *Hub) broadcast(doc string, msg *api.Message, except *session) int {
	h.mu.RLock()
	rm, ok := h.rooms[doc]
	var targets []*session
	if ok {
		targets = make([]*session, 0, len(rm.sessions))
		for s := range rm.sessions {
			if s != except {
				targets = append(targets, s)
			}
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.enqueue(msg)
	}
	return len(targets)
}

// SessionCount число открытых сессий документа
func (h *Hub) SessionCount(doc string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rm, ok := h.rooms[doc]; ok {
		return len(rm.sessions)
	}
	return 0
}

// Close закрывает все сессии и перестает принимать новые
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*session
	for _, rm := range h.rooms {
		for s := range rm.sessions {
			all = append(all, s)
		}
	}
	h.mu.Unlock()

	for _, s := range all {
		s.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
}

func (h *Hub) messageID() string {
	return "srv_" + uuid.NewString()
}
