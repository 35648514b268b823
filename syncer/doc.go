// Package syncer implements the synchronization routine shared by the batch
// backfill and the single-record update path.
//
// Sync and Update follow the same steps: validate the content, make one call to
// the embedding provider, write the vector back by id. Errors carry the core
// taxonomy so callers can classify them with core.CategoryOf:
//
//   - unusable content: core.ErrInput
//   - provider failures: core.ErrUpstreamProvider
//   - store failures: core.ErrPersistence
//
// Nothing is retried. A failed record stays eligible and is picked up by the
// next backfill run.
package syncer
