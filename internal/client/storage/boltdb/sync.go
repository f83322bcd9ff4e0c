package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophdash/internal/client/storage"
)

// SaveSyncRecord saves the last successful sync of a document
func (s *Storage) SaveSyncRecord(ctx context.Context, record storage.SyncRecord) error {
	if record.Document == "" {
		return fmt.Errorf("sync record without document")
	}

	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSync)
		if bucket == nil {
			return fmt.Errorf("sync bucket not found")
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal sync record: %w", err)
		}

		if err := bucket.Put([]byte(record.Document), data); err != nil {
			return fmt.Errorf("failed to save sync record: %w", err)
		}
		return nil
	})
}

// GetSyncRecord retrieves the last sync of a document
// Returns a zero record if the document was never synced
func (s *Storage) GetSyncRecord(ctx context.Context, doc string) (storage.SyncRecord, error) {
	record := storage.SyncRecord{Document: doc}

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSync)
		if bucket == nil {
			return fmt.Errorf("sync bucket not found")
		}

		data := bucket.Get([]byte(doc))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return storage.SyncRecord{}, fmt.Errorf("failed to get sync record: %w", err)
	}

	return record, nil
}

// ListSyncRecords returns all sync records ordered by document id
func (s *Storage) ListSyncRecords(ctx context.Context) ([]storage.SyncRecord, error) {
	records := make([]storage.SyncRecord, 0)

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSync)
		if bucket == nil {
			return fmt.Errorf("sync bucket not found")
		}

		// ключи bbolt отсортированы побайтово
		return bucket.ForEach(func(k, v []byte) error {
			var record storage.SyncRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("failed to unmarshal sync record %q: %w", k, err)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}
