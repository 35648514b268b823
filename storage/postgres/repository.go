package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
)

// invalid_text_representation: the id cannot be cast to the column type.
const pqInvalidTextRepresentation = "22P02"

// Repository implements storage.RecordRepository on a Postgres table with a
// pgvector embedding column.
type Repository struct {
	db     *sqlx.DB
	logger *slog.Logger

	selectFirst string
	selectAfter string
	countQuery  string
	updateQuery string
}

var _ storage.RecordRepository = (*Repository)(nil)

type recordRow struct {
	ID      string `db:"id"`
	Content any    `db:"content"`
}

// Open connects to the database at dsn and returns a repository over it.
func Open(ctx context.Context, dsn string, config Config) (storage.RecordRepository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: database url is required", core.ErrConfiguration)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	return newRepository(db, config)
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, config Config) (storage.RecordRepository, error) {
	return newRepository(db, config)
}

func newRepository(db *sqlx.DB, config Config) (*Repository, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	table := quoteTable(config.Table)
	id := pq.QuoteIdentifier(config.IDColumn)
	content := pq.QuoteIdentifier(config.ContentColumn)
	embedding := pq.QuoteIdentifier(config.EmbeddingColumn)

	base := fmt.Sprintf("SELECT %s::text AS id, %s AS content FROM %s WHERE %s IS NULL", id, content, table, embedding)

	return &Repository{
		db:          db,
		logger:      slog.Default().With("component", "postgres-repository"),
		selectFirst: fmt.Sprintf("%s ORDER BY %s LIMIT $1", base, id),
		selectAfter: fmt.Sprintf("%s AND %s > $1 ORDER BY %s LIMIT $2", base, id, id),
		countQuery:  fmt.Sprintf("SELECT count(*) FROM %s WHERE %s IS NULL", table, embedding),
		updateQuery: fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2", table, embedding, id),
	}, nil
}

// quoteTable quotes each part of a possibly schema-qualified table name.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// FindMissingEmbeddings returns the next page of records whose embedding is NULL.
func (r *Repository) FindMissingEmbeddings(ctx context.Context, after core.ID, limit int) ([]*core.Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var rows []recordRow
	var err error
	if after.IsZero() {
		err = r.db.SelectContext(ctx, &rows, r.selectFirst, limit)
	} else {
		err = r.db.SelectContext(ctx, &rows, r.selectAfter, after.String(), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting records without embedding: %w", err)
	}

	records := make([]*core.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, &core.Record{
			Id:      core.ID(row.ID),
			Content: row.Content,
		})
	}
	r.logger.Debug("fetched page", "after", after, "count", len(records))
	return records, nil
}

// CountMissingEmbeddings returns the number of rows whose embedding is NULL.
func (r *Repository) CountMissingEmbeddings(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.countQuery); err != nil {
		return 0, fmt.Errorf("counting records without embedding: %w", err)
	}
	return n, nil
}

// UpdateEmbedding writes vector into the embedding column of the row with the given id.
func (r *Repository) UpdateEmbedding(ctx context.Context, id core.ID, vector core.Vector) error {
	res, err := r.db.ExecContext(ctx, r.updateQuery, pgvector.NewVector(vector), id.String())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresentation {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		return fmt.Errorf("updating embedding of %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating embedding of %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return nil
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}
