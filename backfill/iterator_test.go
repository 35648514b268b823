package backfill

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/embedsync/core"
	storagemock "github.com/poiesic/embedsync/storage/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageIterator_ForEach(t *testing.T) {
	repo := setupTestDB(t, numbered(7)...)

	var pages [][]core.ID
	it := NewPageIterator(repo, 3, "")
	err := it.ForEach(context.Background(), func(page []*core.Record) error {
		var ids []core.ID
		for _, r := range page {
			ids = append(ids, r.Id)
		}
		pages = append(pages, ids)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, [][]core.ID{{"1", "2", "3"}, {"4", "5", "6"}, {"7"}}, pages)
	assert.Equal(t, core.ID("7"), it.Cursor())
}

func TestPageIterator_Lazy(t *testing.T) {
	calls := 0
	repo := storagemock.NewMockRepository()
	repo.FindMissingEmbeddingsFunc = func(ctx context.Context, after core.ID, limit int) ([]*core.Record, error) {
		calls++
		return nil, nil
	}

	it := NewPageIterator(repo, 10, "")
	assert.Equal(t, 0, calls, "nothing fetched before Next")

	page, err := it.Next(context.Background())
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, 1, calls)

	page, err = it.Next(context.Background())
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, 1, calls, "exhausted iterator stops fetching")
}

func TestPageIterator_DefaultPageSize(t *testing.T) {
	var gotLimit int
	repo := storagemock.NewMockRepository()
	repo.FindMissingEmbeddingsFunc = func(ctx context.Context, after core.ID, limit int) ([]*core.Record, error) {
		gotLimit = limit
		return nil, nil
	}

	_, err := NewPageIterator(repo, 0, "").Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, gotLimit)
}

func TestPageIterator_StopsOnCallbackError(t *testing.T) {
	repo := setupTestDB(t, numbered(7)...)
	stop := errors.New("stop")

	calls := 0
	err := NewPageIterator(repo, 2, "").ForEach(context.Background(), func(page []*core.Record) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestPageIterator_ContextCancelled(t *testing.T) {
	repo := setupTestDB(t, numbered(3)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewPageIterator(repo, 2, "").ForEach(ctx, func(page []*core.Record) error {
		t.Fatal("callback should not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
