package api

import "time"

// SnapshotResponse представляет подтвержденное состояние документа
type SnapshotResponse struct {
	UpdatedAt time.Time      `json:"updated_at"`
	State     map[string]any `json:"state"`
	Document  string         `json:"document"`
	Version   int64          `json:"version"` // максимальная версия ключа в документе
}

// DocumentListResponse ответ со списком документов
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents"`
}

// DocumentSummary элемент списка документов
type DocumentSummary struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
	Fields  int    `json:"fields"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// TokenResponse представляет ответ с токеном доступа
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	ExpiresIn   int64  `json:"expires_in"`   // время жизни токена в секундах
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
