package storage

import (
	"context"
	"time"
)

//go:generate moq -out sync_mock.go . SyncStorage

// SyncRecord последняя успешная синхронизация документа
type SyncRecord struct {
	At       time.Time `json:"at"`
	Document string    `json:"document"`
	Version  int64     `json:"version"`
	Pending  int       `json:"pending"`
	Conflict int       `json:"conflicts"`
}

// SyncStorage defines interface for per-document sync bookkeeping
type SyncStorage interface {
	// SaveSyncRecord stores the record under record.Document
	SaveSyncRecord(ctx context.Context, record SyncRecord) error

	// GetSyncRecord returns a zero record (with Document set) if none was saved
	GetSyncRecord(ctx context.Context, doc string) (SyncRecord, error)

	// ListSyncRecords returns records ordered by document
	ListSyncRecords(ctx context.Context) ([]SyncRecord, error)
}
