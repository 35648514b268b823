package storage

import (
	"context"

	"github.com/poiesic/embedsync/core"
)

// RecordRepository provides the read and write operations used to keep the
// embedding column in sync with the content column.
// Implementations must be safe for concurrent use.
type RecordRepository interface {
	// FindMissingEmbeddings returns up to limit records whose embedding is absent,
	// ordered by id, with ids strictly greater than after.
	// An empty after starts from the beginning.
	// Records with a present embedding are never returned.
	FindMissingEmbeddings(ctx context.Context, after core.ID, limit int) ([]*core.Record, error)

	// CountMissingEmbeddings returns the number of records whose embedding is absent.
	CountMissingEmbeddings(ctx context.Context) (int, error)

	// UpdateEmbedding sets the embedding of the record with the given id.
	// It never creates records: returns ErrNotFound if no record has that id.
	// Writing the same vector twice leaves the store unchanged.
	UpdateEmbedding(ctx context.Context, id core.ID, vector core.Vector) error

	// Close closes the storage backend and releases resources.
	Close() error
}
