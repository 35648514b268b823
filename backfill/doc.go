// Package backfill implements the batch reconciliation job.
//
// A Backfiller walks every record whose embedding is absent, in id order, and
// hands each one to a Synchronizer. Pages are fetched lazily with a keyset
// cursor, so memory use is bounded by the page size and a crashed run can be
// resumed with Config.StartAfter set to the previous Report.LastID.
//
// Per-record problems never stop the run:
//
//   - records with missing, non-text or blank content are skipped
//   - provider or store failures are recorded as failed
//
// Both stay eligible and are visited again by the next run. Only a failure to
// fetch a page, or cancellation, ends the run early.
//
// # Usage
//
//	s, _ := syncer.New(repo, embedder)
//	b, err := backfill.NewBackfiller(repo, s, backfill.DefaultConfig(), os.Stderr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := b.Run(ctx)
package backfill
