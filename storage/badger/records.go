// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
)

// Repository implements storage.RecordRepository for BadgerDB.
type Repository struct {
	backend *Backend
	idSeq   *badger.Sequence
	owned   bool
	closed  atomic.Bool
	logger  *slog.Logger
}

// maxConflictAttempts bounds how often a write is re-run after Badger reports
// a conflicting concurrent transaction on the same keys.
const maxConflictAttempts = 100

var _ storage.RecordRepository = (*Repository)(nil)

// storedRecord is the value layout of a record key.
type storedRecord struct {
	Content   any       `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// NewRepository creates a Repository on an open backend.
// The caller keeps ownership of the backend.
func NewRepository(backend *Backend) (*Repository, error) {
	idSeq, err := backend.GetSequence(recordIDSeq)
	if err != nil {
		return nil, err
	}

	return &Repository{
		backend: backend,
		idSeq:   idSeq,
		logger:  slog.Default().With("component", "badger-repository"),
	}, nil
}

// Open opens a BadgerDB store at path and returns a repository that owns it.
func Open(path string, inMemory bool) (storage.RecordRepository, error) {
	return openRepository(path, inMemory)
}

func openRepository(path string, inMemory bool) (*Repository, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	repo, err := NewRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	repo.owned = true
	return repo, nil
}

// Close releases the ID sequence, and the backend when the repository owns it.
// Close is idempotent; operations after Close return storage.ErrStorageClosed.
func (r *Repository) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := r.idSeq.Release()
	if r.owned {
		err = errors.Join(err, r.backend.Close())
	}
	return err
}

// PutRecords stores records, assigning sequential IDs to records without one.
// Records without an embedding are added to the missing-embedding index.
func (r *Repository) PutRecords(ctx context.Context, records ...*core.Record) ([]*core.Record, error) {
	if err := r.checkOpen(ctx); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.Id.IsZero() {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				record.Id = core.IDFromInt(int64(nextID))
			}
			if err := r.writeRecord(tx, record); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetRecord retrieves a single record by ID.
// Returns ErrNotFound if the record doesn't exist.
func (r *Repository) GetRecord(ctx context.Context, id core.ID) (*core.Record, error) {
	if err := r.checkOpen(ctx); err != nil {
		return nil, err
	}

	var record *core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = r.readRecord(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return record, nil
}

// FindMissingEmbeddings walks the missing-embedding index from just past after.
func (r *Repository) FindMissingEmbeddings(ctx context.Context, after core.ID, limit int) ([]*core.Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	if err := r.checkOpen(ctx); err != nil {
		return nil, err
	}

	var records []*core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(missingPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seek := opts.Prefix
		if !after.IsZero() {
			seek = makeMissingKey(after)
		}

		for iter.Seek(seek); iter.Valid() && len(records) < limit; iter.Next() {
			key := iter.Item().Key()
			if !after.IsZero() && bytes.Equal(key, seek) {
				continue
			}

			id, err := decodeID(key[len(missingPrefix):])
			if err != nil {
				return fmt.Errorf("%w: %q", err, key)
			}
			record, err := r.readRecord(tx, id)
			if err != nil {
				return err
			}
			if record == nil || !record.Eligible() {
				r.logger.Warn("stale missing-embedding index entry", "id", id)
				continue
			}
			records = append(records, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountMissingEmbeddings counts entries of the missing-embedding index.
func (r *Repository) CountMissingEmbeddings(ctx context.Context) (int, error) {
	if err := r.checkOpen(ctx); err != nil {
		return 0, err
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(missingPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// UpdateEmbedding sets the embedding of an existing record and removes it from
// the missing-embedding index.
func (r *Repository) UpdateEmbedding(ctx context.Context, id core.ID, vector core.Vector) error {
	if err := r.checkOpen(ctx); err != nil {
		return err
	}

	update := func(tx *badger.Txn) error {
		record, err := r.readRecord(tx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}

		record.Embedding = vector
		if err := r.writeRecord(tx, record); err != nil {
			return err
		}
		return tx.Commit()
	}

	// Concurrent updates of the same id conflict under Badger's SSI; re-running
	// the transaction makes the last committed write win.
	var err error
	for attempt := 0; attempt < maxConflictAttempts; attempt++ {
		err = r.backend.WithTx(update, true)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.logger.Debug("update conflict, retrying", "id", id, "attempt", attempt+1)
	}
	return err
}

func (r *Repository) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.closed.Load() || r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

func (r *Repository) writeRecord(tx *badger.Txn, record *core.Record) error {
	content := record.Content
	if b, ok := content.([]byte); ok {
		content = string(b)
	}
	value, err := json.Marshal(storedRecord{
		Content:   content,
		Embedding: record.Embedding,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if err := tx.Set(makeRecordKey(record.Id), value); err != nil {
		return err
	}

	missingKey := makeMissingKey(record.Id)
	if record.Eligible() {
		return tx.Set(missingKey, nil)
	}
	return tx.Delete(missingKey)
}

// readRecord returns nil, nil when the record does not exist.
func (r *Repository) readRecord(tx *badger.Txn, id core.ID) (*core.Record, error) {
	item, err := tx.Get(makeRecordKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stored storedRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &stored)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	return &core.Record{
		Id:        id,
		Content:   stored.Content,
		Embedding: stored.Embedding,
	}, nil
}
