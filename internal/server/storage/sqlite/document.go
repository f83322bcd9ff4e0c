package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/gophdash/internal/server/storage"
)

// ApplyFields shallow-merges fields into the document in one transaction
func (s *Storage) ApplyFields(ctx context.Context, doc, user string, fields map[string]any) (*storage.Applied, error) {
	if len(fields) == 0 {
		return nil, storage.ErrEmptyUpdate
	}

	// Кодируем заранее, чтобы не держать транзакцию на ошибке сериализации
	encoded := make(map[string]string, len(fields))
	canonical := make(map[string]any, len(fields))
	for key, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %q: %w", key, err)
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode field %q: %w", key, err)
		}
		encoded[key] = string(raw)
		canonical[key] = decoded
	}

	now := s.now()
	nowMs := now.UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO documents (id, version, created_at, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET version = version + 1, updated_at = excluded.updated_at
		RETURNING version
	`, doc, nowMs, nowMs).Scan(&version)
	if err != nil {
		return nil, fmt.Errorf("failed to bump document version: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_fields (document_id, key, value, version, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, key) DO UPDATE SET
			value = excluded.value,
			version = excluded.version,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare field upsert: %w", err)
	}
	defer stmt.Close()

	for key, raw := range encoded {
		if _, err := stmt.ExecContext(ctx, doc, key, raw, version, user, nowMs); err != nil {
			return nil, fmt.Errorf("failed to write field %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return &storage.Applied{
		Version:   version,
		Fields:    canonical,
		UpdatedAt: time.UnixMilli(nowMs),
	}, nil
}

// Snapshot returns the whole confirmed state of the document
func (s *Storage) Snapshot(ctx context.Context, doc string) (*storage.Snapshot, error) {
	snap, err := s.FieldsSince(ctx, doc, 0)
	if errors.Is(err, storage.ErrDocumentNotFound) {
		return &storage.Snapshot{Document: doc, Fields: map[string]any{}}, nil
	}
	return snap, err
}

// FieldsSince returns fields written after the given document version
func (s *Storage) FieldsSince(ctx context.Context, doc string, since int64) (*storage.Snapshot, error) {
	snap := &storage.Snapshot{Document: doc, Fields: map[string]any{}}

	var updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version, updated_at FROM documents WHERE id = ?`, doc,
	).Scan(&snap.Version, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	snap.UpdatedAt = time.UnixMilli(updatedAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value FROM document_fields
		WHERE document_id = ? AND version > ?
		ORDER BY key
	`, doc, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("failed to decode field %q: %w", key, err)
		}
		snap.Fields[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fields: %w", err)
	}

	return snap, nil
}

// ListDocuments returns all known documents ordered by id
func (s *Storage) ListDocuments(ctx context.Context) ([]storage.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.version, d.updated_at, COUNT(f.key)
		FROM documents d
		LEFT JOIN document_fields f ON f.document_id = d.id
		GROUP BY d.id
		ORDER BY d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]storage.DocumentInfo, 0)
	for rows.Next() {
		var info storage.DocumentInfo
		var updatedAt int64
		if err := rows.Scan(&info.ID, &info.Version, &updatedAt, &info.Fields); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		info.UpdatedAt = time.UnixMilli(updatedAt)
		docs = append(docs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}
