// Package postgres implements storage.RecordRepository for Postgres and Supabase.
//
// The embedding column is a pgvector column. Table and column names are
// configurable and always quoted. Pages are selected with a keyset cursor on the
// id column, so a run can resume after the last id it processed.
package postgres
