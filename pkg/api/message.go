package api

import (
	"encoding/json"
	"time"
)

// MessageType тип сообщения websocket протокола
type MessageType string

const (
	TypeConnect          MessageType = "CONNECT"
	TypePing             MessageType = "PING"
	TypePong             MessageType = "PONG"
	TypeSyncRequest      MessageType = "SYNC_REQUEST"
	TypeSyncResponse     MessageType = "SYNC_RESPONSE"
	TypeWidgetUpdate     MessageType = "WIDGET_UPDATE"
	TypeLayoutUpdate     MessageType = "LAYOUT_UPDATE"
	TypeOptimisticUpdate MessageType = "OPTIMISTIC_UPDATE"
	TypeAck              MessageType = "ACK"
	TypeNack             MessageType = "NACK"
	TypeServerError      MessageType = "SERVER_ERROR"
)

// IsMutation сообщает, меняет ли сообщение состояние документа.
func (t MessageType) IsMutation() bool {
	switch t {
	case TypeWidgetUpdate, TypeLayoutUpdate, TypeOptimisticUpdate:
		return true
	}
	return false
}

// Коды ошибок в NACK / SERVER_ERROR
const (
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeInvalidKey     = "INVALID_KEY"
	CodeRateLimited    = "RATE_LIMITED"
	CodeStorage        = "STORAGE_ERROR"
	CodeUnsupported    = "UNSUPPORTED_TYPE"
)

// Message конверт всех сообщений websocket протокола.
// CorrelationID заполняется в ответах (ACK, NACK, SYNC_RESPONSE, PONG)
// и равен ID запроса.
type Message struct {
	Timestamp     time.Time      `json:"timestamp"`
	Data          map[string]any `json:"data,omitempty"`
	Error         *Error         `json:"error,omitempty"`
	Type          MessageType    `json:"type"`
	ID            string         `json:"id"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Document      string         `json:"document,omitempty"`
	Sender        string         `json:"sender,omitempty"`
	// Version версия документа после изменения (ACK, SYNC_RESPONSE, рассылка)
	Version int64 `json:"version,omitempty"`
}

// Error описание ошибки в ответе сервера
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewReply создает ответ на сообщение req
func NewReply(req *Message, typ MessageType, id string, at time.Time) *Message {
	return &Message{
		Type:          typ,
		ID:            id,
		CorrelationID: req.ID,
		Document:      req.Document,
		Timestamp:     at,
	}
}

// DecodeMessage разбирает сообщение; числа остаются float64, как и в encoding/json.
func DecodeMessage(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
