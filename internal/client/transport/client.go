package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/iudanet/gophdash/pkg/api"
)

// WebsocketPath путь websocket endpoint на сервере
const WebsocketPath = "/api/v1/ws"

var (
	ErrClosed       = errors.New("connection closed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTimeout      = errors.New("request timed out")
	ErrUnexpected   = errors.New("unexpected reply")
)

// Config параметры подключения
type Config struct {
	Dialer         *websocket.Dialer
	ServerURL      string
	Document       string
	RequestTimeout time.Duration
	PingInterval   time.Duration
	WriteTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return c
}

// PushHandler получает изменения, разосланные сервером от других сессий.
// Вызывается из потока чтения, порядок сообщений сохраняется.
// Обработчик не должен ждать ответов на запросы этого же соединения.
type PushHandler func(msg *api.Message)

// call ожидающий ответа запрос
type call struct {
	reply chan *api.Message
	// inline выполняется в потоке чтения до обработки следующего сообщения
	inline func(msg *api.Message)
}

// Client websocket соединение с документом на сервере.
// Запросы сопоставляются с ответами по correlation_id.
type Client struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	pending map[string]*call
	push    PushHandler
	// versions последняя известная версия каждого поля
	versions  map[string]int64
	latest    int64
	done      chan struct{}
	closeErr  error
	sessionID string
	cfg       Config
	mu        sync.Mutex
	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial подключается к документу cfg.Document с bearer токеном
func Dial(ctx context.Context, cfg Config, token string, logger *slog.Logger) (*Client, error) {
	cfg = cfg.withDefaults()

	endpoint, err := websocketURL(cfg.ServerURL, cfg.Document)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := cfg.Dialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	c := &Client{
		conn:     conn,
		logger:   logger,
		cfg:      cfg,
		pending:  make(map[string]*call),
		versions: make(map[string]int64),
		done:     make(chan struct{}),
	}

	go c.readLoop()
	if cfg.PingInterval > 0 {
		go c.heartbeat()
	}

	logger.Debug("Connected", "url", endpoint, "doc", cfg.Document)
	return c, nil
}

// websocketURL переводит http(s) адрес сервера в ws(s) адрес endpoint
func websocketURL(serverURL, doc string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server url scheme %q", u.Scheme)
	}
	u.Path += WebsocketPath
	u.RawQuery = url.Values{"doc": {doc}}.Encode()
	return u.String(), nil
}

// SetPushHandler регистрирует обработчик рассылки; nil отключает доставку
func (c *Client) SetPushHandler(h PushHandler) {
	c.mu.Lock()
	c.push = h
	c.mu.Unlock()
}

// SessionID идентификатор сессии, выданный сервером в CONNECT
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Version наибольшая версия документа, известная клиенту
func (c *Client) Version() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Done закрывается при разрыве соединения
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err причина закрытия соединения
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

// Request отправляет сообщение и ждет ответ с тем же correlation_id
func (c *Client) Request(ctx context.Context, msgType api.MessageType, data map[string]any) (*api.Message, error) {
	return c.request(ctx, msgType, data, nil)
}

func (c *Client) request(ctx context.Context, msgType api.MessageType, data map[string]any, inline func(*api.Message)) (*api.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := &api.Message{
		Type:      msgType,
		ID:        uuid.NewString(),
		Document:  c.cfg.Document,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	pc := &call{reply: make(chan *api.Message, 1), inline: inline}

	c.mu.Lock()
	if c.closeErr != nil {
		err := c.closeErr
		c.mu.Unlock()
		return nil, err
	}
	c.pending[msg.ID] = pc
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.ID)
		c.mu.Unlock()
	}()

	if err := c.write(msg); err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case reply := <-pc.reply:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s %s", ErrTimeout, msgType, msg.ID)
	case <-c.done:
		return nil, c.Err()
	}
}

// Ping проверяет соединение и возвращает время ответа
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	reply, err := c.Request(ctx, api.TypePing, nil)
	if err != nil {
		return 0, err
	}
	if reply.Type != api.TypePong {
		return 0, fmt.Errorf("%w: %s", ErrUnexpected, reply.Type)
	}
	return time.Since(start), nil
}

// Snapshot запрашивает текущее состояние документа
func (c *Client) Snapshot(ctx context.Context) (map[string]any, int64, error) {
	reply, err := c.Request(ctx, api.TypeSyncRequest, nil)
	if err != nil {
		return nil, 0, err
	}
	if err := replyError(reply, api.TypeSyncResponse); err != nil {
		return nil, 0, err
	}
	return reply.Data, reply.Version, nil
}

// Close закрывает соединение; ожидающие запросы получают ErrClosed
func (c *Client) Close() error {
	c.writeMu.Lock()
	deadline := time.Now().Add(c.cfg.WriteTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.writeMu.Unlock()

	c.shutdown(ErrClosed)
	return nil
}

func (c *Client) shutdown(reason error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeErr = reason
		c.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) write(msg *api.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return c.Err()
	default:
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		c.shutdown(fmt.Errorf("%w: %w", ErrClosed, err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (c *Client) readLoop() {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Debug("Connection lost", "error", err)
			}
			c.shutdown(fmt.Errorf("%w: %w", ErrClosed, err))
			return
		}

		msg, err := api.DecodeMessage(raw)
		if err != nil {
			c.logger.Warn("Malformed message from server", "error", err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg *api.Message) {
	if msg.CorrelationID != "" {
		c.mu.Lock()
		pc, ok := c.pending[msg.CorrelationID]
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("Reply without waiter", "type", msg.Type, "correlation_id", msg.CorrelationID)
			return
		}
		c.trackReply(msg)
		if pc.inline != nil {
			pc.inline(msg)
		}
		pc.reply <- msg
		return
	}

	switch {
	case msg.Type == api.TypeConnect:
		if id, ok := msg.Data["session_id"].(string); ok {
			c.mu.Lock()
			c.sessionID = id
			c.mu.Unlock()
		}
	case msg.Type == api.TypePing:
		reply := api.NewReply(msg, api.TypePong, uuid.NewString(), time.Now().UTC())
		if err := c.write(reply); err != nil {
			c.logger.Debug("Failed to answer ping", "error", err)
		}
	case msg.Type.IsMutation():
		if !c.trackPush(msg) {
			return
		}
		c.mu.Lock()
		h := c.push
		c.mu.Unlock()
		if h != nil {
			h(msg)
		}
	case msg.Type == api.TypeServerError && msg.Error != nil:
		c.logger.Warn("Server error", "code", msg.Error.Code, "message", msg.Error.Message)
	default:
		c.logger.Debug("Ignoring message", "type", msg.Type)
	}
}

// trackReply запоминает версии полей из ACK и снапшота.
// Поля ACK, уже перекрытые более новой рассылкой, из ответа убираются.
func (c *Client) trackReply(msg *api.Message) {
	if msg.Version == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.Version > c.latest {
		c.latest = msg.Version
	}
	switch msg.Type {
	case api.TypeAck:
		for k := range msg.Data {
			if c.versions[k] > msg.Version {
				delete(msg.Data, k)
				continue
			}
			c.versions[k] = msg.Version
		}
	case api.TypeSyncResponse:
		for k := range msg.Data {
			if c.versions[k] < msg.Version {
				c.versions[k] = msg.Version
			}
		}
	}
}

// trackPush отбрасывает устаревшие поля рассылки; false если не осталось ничего
func (c *Client) trackPush(msg *api.Message) bool {
	if msg.Version == 0 {
		return len(msg.Data) > 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.Version > c.latest {
		c.latest = msg.Version
	}
	for k := range msg.Data {
		if c.versions[k] >= msg.Version {
			delete(msg.Data, k)
			continue
		}
		c.versions[k] = msg.Version
	}
	return len(msg.Data) > 0
}

// heartbeat периодически пингует сервер и закрывает соединение без ответа
func (c *Client) heartbeat() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			rtt, err := c.Ping(context.Background())
			if err != nil {
				if errors.Is(err, ErrClosed) {
					return
				}
				c.logger.Warn("Heartbeat failed, closing connection", "error", err)
				c.shutdown(fmt.Errorf("%w: heartbeat: %w", ErrClosed, err))
				return
			}
			c.logger.Debug("Heartbeat", "rtt", rtt)
		}
	}
}

// replyError переводит NACK и SERVER_ERROR в ошибку
func replyError(reply *api.Message, want api.MessageType) error {
	if reply.Type == want {
		return nil
	}
	if reply.Error != nil {
		return fmt.Errorf("%s: %s", reply.Error.Code, reply.Error.Message)
	}
	return fmt.Errorf("%w: %s", ErrUnexpected, reply.Type)
}
