package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	selectFirstSQL = `SELECT "id"::text AS id, "content" AS content FROM "developments" WHERE "embedding" IS NULL ORDER BY "id" LIMIT $1`
	selectAfterSQL = `SELECT "id"::text AS id, "content" AS content FROM "developments" WHERE "embedding" IS NULL AND "id" > $1 ORDER BY "id" LIMIT $2`
	countSQL       = `SELECT count(*) FROM "developments" WHERE "embedding" IS NULL`
	updateSQL      = `UPDATE "developments" SET "embedding" = $1 WHERE "id" = $2`
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Logf("Failed to close mock db: %v", closeErr)
		}
	})

	repo, err := newRepository(sqlx.NewDb(db, "sqlmock"), DefaultConfig())
	require.NoError(t, err)
	return repo, mock
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.EmbeddingColumn = " "
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.Contains(t, err.Error(), "EmbeddingColumn")

	cfg = DefaultConfig()
	cfg.MaxOpenConns = -1
	assert.ErrorIs(t, cfg.Validate(), core.ErrConfiguration)
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "", DefaultConfig())
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"developments"`, quoteTable("developments"))
	assert.Equal(t, `"public"."developments"`, quoteTable("public.developments"))
	assert.Equal(t, `"we""ird"`, quoteTable(`we"ird`))
}

func TestFindMissingEmbeddings_FirstPage(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"id", "content"}).
		AddRow("1", "Apartamento no centro").
		AddRow("2", "").
		AddRow("3", nil)
	mock.ExpectQuery(selectFirstSQL).WithArgs(100).WillReturnRows(rows)

	records, err := repo.FindMissingEmbeddings(context.Background(), "", 100)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, core.ID("1"), records[0].Id)
	assert.Equal(t, "Apartamento no centro", records[0].Content)
	assert.Equal(t, "", records[1].Content)
	assert.Nil(t, records[2].Content)
	for _, r := range records {
		assert.True(t, r.Eligible())
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMissingEmbeddings_AfterCursor(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"id", "content"}).AddRow("11", "Casa à venda")
	mock.ExpectQuery(selectAfterSQL).WithArgs("10", 5).WillReturnRows(rows)

	records, err := repo.FindMissingEmbeddings(context.Background(), "10", 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.ID("11"), records[0].Id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMissingEmbeddings_Errors(t *testing.T) {
	repo, mock := newMockRepository(t)

	_, err := repo.FindMissingEmbeddings(context.Background(), "", 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	boom := errors.New("connection reset")
	mock.ExpectQuery(selectFirstSQL).WithArgs(10).WillReturnError(boom)
	_, err = repo.FindMissingEmbeddings(context.Background(), "", 10)
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountMissingEmbeddings(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(countSQL).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := repo.CountMissingEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmbedding(t *testing.T) {
	repo, mock := newMockRepository(t)
	vector := core.Vector{0.25, 0.5, 0.75}

	mock.ExpectExec(updateSQL).
		WithArgs(pgvector.NewVector(vector), "1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateEmbedding(context.Background(), "1", vector))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmbedding_UnknownID(t *testing.T) {
	repo, mock := newMockRepository(t)
	vector := core.Vector{0.25, 0.5}

	mock.ExpectExec(updateSQL).
		WithArgs(pgvector.NewVector(vector), "999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEmbedding(context.Background(), "999", vector)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmbedding_NonNumericID(t *testing.T) {
	repo, mock := newMockRepository(t)
	vector := core.Vector{0.25}

	mock.ExpectExec(updateSQL).
		WithArgs(pgvector.NewVector(vector), "abc").
		WillReturnError(&pq.Error{Code: pqInvalidTextRepresentation, Message: "invalid input syntax for type bigint"})

	err := repo.UpdateEmbedding(context.Background(), "abc", vector)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmbedding_DriverError(t *testing.T) {
	repo, mock := newMockRepository(t)
	vector := core.Vector{0.25}
	boom := &pq.Error{Code: "22000", Message: "expected 1536 dimensions, not 1"}

	mock.ExpectExec(updateSQL).
		WithArgs(pgvector.NewVector(vector), "1").
		WillReturnError(boom)

	err := repo.UpdateEmbedding(context.Background(), "1", vector)
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)

	var pqErr *pq.Error
	require.ErrorAs(t, err, &pqErr)
	assert.Equal(t, pq.ErrorCode("22000"), pqErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
