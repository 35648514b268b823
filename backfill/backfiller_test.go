package backfill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	aimock "github.com/poiesic/embedsync/ai/mock"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage/badger"
	storagemock "github.com/poiesic/embedsync/storage/mock"
	"github.com/poiesic/embedsync/syncer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T, records ...*core.Record) *badger.Repository {
	t.Helper()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	if len(records) > 0 {
		_, err = repo.PutRecords(context.Background(), records...)
		require.NoError(t, err)
	}
	return repo
}

func numbered(n int) []*core.Record {
	records := make([]*core.Record, n)
	for i := range records {
		records[i] = &core.Record{
			Id:      core.IDFromInt(int64(i + 1)),
			Content: fmt.Sprintf("Imóvel número %d", i+1),
		}
	}
	return records
}

func newTestBackfiller(t *testing.T, repo *badger.Repository, embedder *aimock.MockEmbedder, config *Config) (*Backfiller, *bytes.Buffer) {
	t.Helper()
	s, err := syncer.New(repo, embedder)
	require.NoError(t, err)

	var buf bytes.Buffer
	b, err := NewBackfiller(repo, s, config, &buf)
	require.NoError(t, err)
	return b, &buf
}

func TestBackfiller_MixedContent(t *testing.T) {
	repo := setupTestDB(t,
		&core.Record{Id: "1", Content: "Apartamento no centro"},
		&core.Record{Id: "2", Content: ""},
		&core.Record{Id: "3", Content: nil},
	)
	embedder := aimock.NewMockEmbedder()
	b, _ := newTestBackfiller(t, repo, embedder, nil)

	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, []core.ID{"2", "3"}, report.SkippedIDs())
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, core.SkipBlank, report.Outcomes[0].Reason)
	assert.Equal(t, core.SkipMissing, report.Outcomes[1].Reason)
	assert.Equal(t, core.ID("3"), report.LastID)

	assert.Equal(t, []string{"Apartamento no centro"}, embedder.Texts(), "exactly one provider call")

	got, err := repo.GetRecord(context.Background(), "1")
	require.NoError(t, err)
	assert.NotEmpty(t, got.Embedding)

	for _, id := range []core.ID{"2", "3"} {
		got, err := repo.GetRecord(context.Background(), id)
		require.NoError(t, err)
		assert.Empty(t, got.Embedding, "record %s stays eligible", id)
	}
}

func TestBackfiller_Idempotent(t *testing.T) {
	repo := setupTestDB(t, numbered(10)...)
	embedder := aimock.NewMockEmbedder()
	b, buf := newTestBackfiller(t, repo, embedder, &Config{PageSize: 3, ReportInterval: 3})

	report, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, report.Updated)
	assert.Equal(t, 10, report.Processed())
	assert.Equal(t, 10, embedder.CallCount())
	assert.Contains(t, buf.String(), "Starting backfill of 10 records (page size: 3)")
	assert.Contains(t, buf.String(), "10/10")

	embedder.Reset()
	report, err = b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed(), "second run finds nothing to do")
	assert.Equal(t, 0, embedder.CallCount())
	assert.Contains(t, buf.String(), "No records missing an embedding")
}

func TestBackfiller_FailureIsolation(t *testing.T) {
	repo := setupTestDB(t, numbered(5)...)
	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "Imóvel número 3" {
			return nil, errors.New("503 service unavailable")
		}
		return aimock.Vector(text, aimock.DefaultDimensions), nil
	}
	b, _ := newTestBackfiller(t, repo, embedder, &Config{PageSize: 2})

	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Updated)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []core.ID{"3"}, report.FailedIDs())
	assert.Equal(t, core.CategoryUpstream, report.Outcomes[0].Category())
	assert.Equal(t, 5, embedder.CallCount(), "no retries")

	remaining, err := repo.FindMissingEmbeddings(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, core.ID("3"), remaining[0].Id)

	// The next run picks the failed record up again
	embedder.EmbedTextFunc = nil
	report, err = b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
}

func TestBackfiller_Resume(t *testing.T) {
	repo := setupTestDB(t, numbered(10)...)
	embedder := aimock.NewMockEmbedder()
	b, _ := newTestBackfiller(t, repo, embedder, &Config{PageSize: 4, StartAfter: "6"})

	report, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Updated)
	assert.Equal(t, core.ID("10"), report.LastID)
	assert.Equal(t, []string{"Imóvel número 7", "Imóvel número 8", "Imóvel número 9", "Imóvel número 10"}, embedder.Texts())
}

func TestBackfiller_Cancelled(t *testing.T) {
	repo := setupTestDB(t, numbered(6)...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(c context.Context, text string) ([]float32, error) {
		if text == "Imóvel número 2" {
			cancel()
			return nil, fmt.Errorf("request aborted: %w", c.Err())
		}
		return aimock.Vector(text, aimock.DefaultDimensions), nil
	}
	b, _ := newTestBackfiller(t, repo, embedder, &Config{PageSize: 10})

	report, err := b.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, core.ErrUpstreamProvider)
	require.NotNil(t, report)
	assert.Equal(t, core.ID("1"), report.LastID, "interrupted record is not passed")
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.FailedIDs())
	assert.Equal(t, 2, embedder.CallCount())

	// Resuming from the reported cursor picks the interrupted record up again.
	embedder.Reset()
	resumed, _ := newTestBackfiller(t, repo, embedder, &Config{PageSize: 10, StartAfter: report.LastID})
	second, err := resumed.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, second.Updated)
	assert.Equal(t, "Imóvel número 2", embedder.Texts()[0])

	record, err := repo.GetRecord(context.Background(), "2")
	require.NoError(t, err)
	assert.False(t, record.Eligible(), "record 2 has an embedding after resume")
}

func TestBackfiller_CancelledAfterWrite(t *testing.T) {
	repo := setupTestDB(t, numbered(3)...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := syncer.New(repo, aimock.NewMockEmbedder())
	require.NoError(t, err)
	wrapped := synchronizerFunc(func(c context.Context, record *core.Record) core.Outcome {
		outcome := s.Sync(c, record)
		if record.Id == "2" {
			cancel()
		}
		return outcome
	})

	b, err := NewBackfiller(repo, wrapped, &Config{PageSize: 10}, nil)
	require.NoError(t, err)

	report, err := b.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, report.Updated, "a record written before cancellation is counted")
	assert.Equal(t, core.ID("2"), report.LastID)
}

type synchronizerFunc func(ctx context.Context, record *core.Record) core.Outcome

func (f synchronizerFunc) Sync(ctx context.Context, record *core.Record) core.Outcome {
	return f(ctx, record)
}

func TestBackfiller_FetchErrorStopsRun(t *testing.T) {
	boom := errors.New("connection reset by peer")
	repo := storagemock.NewMockRepository()
	repo.CountMissingEmbeddingsFunc = func(ctx context.Context) (int, error) { return 4, nil }
	repo.FindMissingEmbeddingsFunc = func(ctx context.Context, after core.ID, limit int) ([]*core.Record, error) {
		if after.IsZero() {
			return []*core.Record{
				{Id: "1", Content: "Casa à venda"},
				{Id: "2", Content: "Sobrado"},
			}, nil
		}
		return nil, boom
	}

	s, err := syncer.New(repo, aimock.NewMockEmbedder())
	require.NoError(t, err)
	b, err := NewBackfiller(repo, s, &Config{PageSize: 2}, nil)
	require.NoError(t, err)

	report, err := b.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, report.Updated, "partial progress is kept")
	assert.Equal(t, core.ID("2"), report.LastID)
	assert.Len(t, repo.Writes(), 2)
}

func TestBackfiller_CountError(t *testing.T) {
	repo := storagemock.NewMockRepository()
	repo.CountMissingEmbeddingsFunc = func(ctx context.Context) (int, error) {
		return 0, errors.New("relation does not exist")
	}
	s, err := syncer.New(repo, aimock.NewMockEmbedder())
	require.NoError(t, err)
	b, err := NewBackfiller(repo, s, nil, nil)
	require.NoError(t, err)

	report, err := b.Run(context.Background())
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.Equal(t, 0, report.Processed())
}

func TestNewBackfiller_InvalidConfig(t *testing.T) {
	repo := storagemock.NewMockRepository()
	s, err := syncer.New(repo, aimock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = NewBackfiller(repo, s, &Config{PageSize: 0}, nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	_, err = NewBackfiller(repo, s, &Config{PageSize: 1, ReportInterval: -1}, nil)
	assert.ErrorIs(t, err, ErrInvalidReportInterval)

	_, err = NewBackfiller(nil, s, nil, nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
