// Package embedsync keeps a record store's embedding column in sync with its
// text content column.
//
// A Service builds the store and the embedding provider once and hands them to
// two drivers that share the same synchronization routine:
//
//   - backfill: a batch job that fills every record missing an embedding
//   - server: an HTTP endpoint that regenerates one record's embedding on demand
//
// # Usage
//
//	cfg := embedsync.DefaultConfig()
//	cfg.Store.DSN = os.Getenv("DATABASE_URL")
//	cfg.AI = ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//
//	svc, err := embedsync.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	report, err := svc.Backfill(ctx, backfill.DefaultConfig(), os.Stderr)
package embedsync
