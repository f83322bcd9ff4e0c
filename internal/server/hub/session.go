package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/iudanet/gophdash/internal/server/storage"
	"github.com/iudanet/gophdash/internal/validation"
	"github.com/iudanet/gophdash/pkg/api"
)

// session одно websocket соединение клиента
type session struct {
	hub     *Hub
	conn    *websocket.Conn
	room    *room
	limiter *rate.Limiter
	send    chan []byte
	done    chan struct{}
	id      string
	user    string
	doc     string
	once    sync.Once
}

func newSession(h *Hub, conn *websocket.Conn, user, doc string) *session {
	return &session{
		hub:     h,
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(h.cfg.MutationRPS), h.cfg.MutationBurst),
		send:    make(chan []byte, h.cfg.SendBuffer),
		done:    make(chan struct{}),
		id:      fmt.Sprintf("sess-%d", h.nextID.Add(1)),
		user:    user,
		doc:     doc,
	}
}

// enqueue ставит сообщение в очередь записи.
// Переполненная очередь означает медленного клиента: сессия закрывается,
// клиент переподключится и возьмет свежий снапшот.
func (s *session) enqueue(msg *api.Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		s.hub.logger.Error("Failed to encode message", "session_id", s.id, "type", msg.Type, "error", err)
		return
	}

	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.send <- raw:
	case <-s.done:
	default:
		s.hub.logger.Warn("Send buffer full, dropping session", "session_id", s.id, "user", s.user)
		s.closeWith(websocket.ClosePolicyViolation, "send buffer overflow")
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *session) closeWith(code int, text string) {
	deadline := time.Now().Add(s.hub.cfg.WriteTimeout)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
	s.close()
}

func (s *session) writePump() {
	var tick <-chan time.Time
	if s.hub.cfg.PingInterval > 0 {
		ticker := time.NewTicker(s.hub.cfg.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.done:
			return
		case raw := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				s.hub.logger.Debug("Write failed", "session_id", s.id, "error", err)
				s.close()
				return
			}
		case <-tick:
			deadline := time.Now().Add(s.hub.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.close()
				return
			}
		}
	}
}

func (s *session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(s.hub.cfg.MaxMessageSize)

	extend := func() {}
	if s.hub.cfg.PingInterval > 0 {
		wait := 2 * s.hub.cfg.PingInterval
		extend = func() { _ = s.conn.SetReadDeadline(time.Now().Add(wait)) }
		extend()
		s.conn.SetPongHandler(func(string) error {
			extend()
			return nil
		})
	}

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.hub.logger.Debug("Unexpected close", "session_id", s.id, "error", err)
			}
			return
		}
		extend()
		s.handle(ctx, raw)
	}
}

func (s *session) handle(ctx context.Context, raw []byte) {
	msg, err := api.DecodeMessage(raw)
	if err != nil || msg.Type == "" {
		s.enqueue(&api.Message{
			Type:      api.TypeServerError,
			ID:        s.hub.messageID(),
			Document:  s.doc,
			Timestamp: s.hub.now(),
			Error:     &api.Error{Code: api.CodeInvalidMessage, Message: "malformed message"},
		})
		return
	}
	// документ сессии фиксирован при подключении
	msg.Document = s.doc

	switch {
	case msg.Type == api.TypePing:
		s.enqueue(api.NewReply(msg, api.TypePong, s.hub.messageID(), s.hub.now()))
	case msg.Type == api.TypeSyncRequest:
		s.handleSync(ctx, msg)
	case msg.Type.IsMutation():
		s.handleMutation(ctx, msg)
	case msg.Type == api.TypePong, msg.Type == api.TypeAck, msg.Type == api.TypeConnect:
		// ответы клиента не требуют действий
	default:
		s.nack(msg, api.CodeUnsupported, fmt.Sprintf("unsupported message type %q", msg.Type))
	}
}

// handleSync отвечает снапшотом; data.since > 0 запрашивает только изменения после версии
func (s *session) handleSync(ctx context.Context, msg *api.Message) {
	var since int64
	if v, ok := msg.Data["since"].(float64); ok && v > 0 {
		since = int64(v)
	}

	var (
		snap *storage.Snapshot
		err  error
	)
	if since > 0 {
		snap, err = s.hub.store.FieldsSince(ctx, s.doc, since)
		if errors.Is(err, storage.ErrDocumentNotFound) {
			snap, err = s.hub.store.Snapshot(ctx, s.doc)
		}
	} else {
		snap, err = s.hub.store.Snapshot(ctx, s.doc)
	}
	if err != nil {
		s.hub.logger.Error("Snapshot failed", "session_id", s.id, "doc", s.doc, "error", err)
		s.nack(msg, api.CodeStorage, "failed to load document")
		return
	}

	reply := api.NewReply(msg, api.TypeSyncResponse, s.hub.messageID(), s.hub.now())
	reply.Data = snap.Fields
	reply.Version = snap.Version
	s.enqueue(reply)
}

func (s *session) handleMutation(ctx context.Context, msg *api.Message) {
	if !s.limiter.Allow() {
		s.nack(msg, api.CodeRateLimited, "too many updates")
		return
	}
	if err := validation.ValidateFields(msg.Data); err != nil {
		s.nack(msg, api.CodeInvalidKey, err.Error())
		return
	}

	s.room.applyMu.Lock()
	defer s.room.applyMu.Unlock()

	applied, err := s.hub.store.ApplyFields(ctx, s.doc, s.user, msg.Data)
	if err != nil {
		s.hub.logger.Error("Failed to persist update",
			"session_id", s.id,
			"doc", s.doc,
			"message_id", msg.ID,
			"error", err,
		)
		s.nack(msg, api.CodeStorage, "failed to persist update")
		return
	}

	ack := api.NewReply(msg, api.TypeAck, s.hub.messageID(), s.hub.now())
	ack.Data = applied.Fields
	ack.Version = applied.Version
	s.enqueue(ack)

	delivered := s.hub.broadcast(s.doc, &api.Message{
		Type:      msg.Type,
		ID:        s.hub.messageID(),
		Document:  s.doc,
		Sender:    s.user,
		Timestamp: applied.UpdatedAt,
		Data:      applied.Fields,
		Version:   applied.Version,
	}, s)

	s.hub.logger.Debug("Update applied",
		"session_id", s.id,
		"doc", s.doc,
		"type", msg.Type,
		"fields", len(applied.Fields),
		"version", applied.Version,
		"delivered", delivered,
	)
}

func (s *session) nack(req *api.Message, code, message string) {
	reply := api.NewReply(req, api.TypeNack, s.hub.messageID(), s.hub.now())
	reply.Error = &api.Error{Code: code, Message: message}
	s.enqueue(reply)
}
