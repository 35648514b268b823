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


// Package storage provides the storage abstraction layer for embedsync.
//
// RecordRepository decouples the synchronization logic from the record store.
// Two backends are provided:
//
//   - postgres: the production store (Postgres or Supabase) with a pgvector column
//   - badger: an embedded BadgerDB store for local runs and tests
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.RecordRepository interface:
//
//	repo, err := postgres.Open(ctx, dsn, postgres.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// Internal constructors may return concrete types since they are only used
// within the implementation package.
//
// # Selection and writes
//
// FindMissingEmbeddings is a keyset cursor: callers pass the last id they saw and
// receive the next page in id order. UpdateEmbedding is update-only and reports
// ErrNotFound for unknown ids.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
