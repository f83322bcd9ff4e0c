package storage

import (
	"context"
	"time"
)

//go:generate moq -out documentstorage_mock.go . DocumentStorage

// Snapshot подтвержденное состояние документа
type Snapshot struct {
	UpdatedAt time.Time
	Fields    map[string]any
	Document  string
	Version   int64
}

// Applied результат записи изменения
type Applied struct {
	UpdatedAt time.Time
	// Fields канонические значения после записи (прошедшие через JSON)
	Fields  map[string]any
	Version int64
}

// DocumentInfo краткая информация о документе
type DocumentInfo struct {
	UpdatedAt time.Time
	ID        string
	Version   int64
	Fields    int
}

// DocumentStorage defines interface for dashboard document persistence
type DocumentStorage interface {
	// ApplyFields shallow-merges fields into the document, creating it if needed.
	// Every write bumps the document version; written keys carry the new version.
	// Returns ErrEmptyUpdate if fields is empty.
	ApplyFields(ctx context.Context, doc, user string, fields map[string]any) (*Applied, error)

	// Snapshot returns the whole confirmed state.
	// Unknown documents yield an empty snapshot with version 0.
	Snapshot(ctx context.Context, doc string) (*Snapshot, error)

	// FieldsSince returns fields written after the given version.
	// Returns ErrDocumentNotFound if the document does not exist.
	FieldsSince(ctx context.Context, doc string, version int64) (*Snapshot, error)

	// ListDocuments returns all known documents ordered by id
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)
}
