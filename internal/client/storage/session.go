package storage

import (
	"context"
	"time"
)

//go:generate moq -out session_mock.go . SessionStorage

// SessionStorage defines interface for storing the CLI login session
type SessionStorage interface {
	// SaveSession replaces the stored session
	SaveSession(ctx context.Context, session *Session) error

	// GetSession returns ErrSessionNotFound if the user has not logged in
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes the session (logout); ErrSessionNotFound if absent
	DeleteSession(ctx context.Context) error
}

// Session данные входа CLI клиента
type Session struct {
	Server      string    `json:"server"`
	User        string    `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Documents   []string  `json:"documents,omitempty"`
}

// Expired сообщает, истек ли токен к моменту now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
