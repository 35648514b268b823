package mock

import (
	"context"
	"sync"

	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
)

// Write is a recorded UpdateEmbedding call.
type Write struct {
	ID     core.ID
	Vector core.Vector
}

// MockRepository is a test double for storage.RecordRepository.
// Function fields override the default behavior, which finds nothing and
// accepts every write.
type MockRepository struct {
	FindMissingEmbeddingsFunc  func(ctx context.Context, after core.ID, limit int) ([]*core.Record, error)
	CountMissingEmbeddingsFunc func(ctx context.Context) (int, error)
	UpdateEmbeddingFunc        func(ctx context.Context, id core.ID, vector core.Vector) error
	CloseFunc                  func() error

	mu     sync.Mutex
	writes []Write
	closed bool
}

var _ storage.RecordRepository = (*MockRepository)(nil)

// NewMockRepository creates a mock repository with default behavior.
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

func (m *MockRepository) FindMissingEmbeddings(ctx context.Context, after core.ID, limit int) ([]*core.Record, error) {
	if m.FindMissingEmbeddingsFunc != nil {
		return m.FindMissingEmbeddingsFunc(ctx, after, limit)
	}
	return nil, nil
}

func (m *MockRepository) CountMissingEmbeddings(ctx context.Context) (int, error) {
	if m.CountMissingEmbeddingsFunc != nil {
		return m.CountMissingEmbeddingsFunc(ctx)
	}
	return 0, nil
}

// UpdateEmbedding records the call before delegating.
func (m *MockRepository) UpdateEmbedding(ctx context.Context, id core.ID, vector core.Vector) error {
	m.mu.Lock()
	m.writes = append(m.writes, Write{ID: id, Vector: vector})
	m.mu.Unlock()

	if m.UpdateEmbeddingFunc != nil {
		return m.UpdateEmbeddingFunc(ctx, id, vector)
	}
	return nil
}

func (m *MockRepository) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Writes returns the recorded UpdateEmbedding calls in order.
func (m *MockRepository) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Write, len(m.writes))
	copy(out, m.writes)
	return out
}

// Closed reports whether Close was called.
func (m *MockRepository) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
