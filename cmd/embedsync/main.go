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


package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/poiesic/embedsync"
	"github.com/poiesic/embedsync/ai"
	"github.com/poiesic/embedsync/backfill"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/sanitize"
	"github.com/poiesic/embedsync/server"
	"github.com/poiesic/embedsync/storage/postgres"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "embedsync",
		Usage: "Keep a record store's embedding column in sync with its content",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file if it exists",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadEnvFile(c.String("env-file")); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "backfill",
				Usage:  "Generate embeddings for every record that lacks one",
				Action: backfillCommand,
				Flags: append(connectionFlags(),
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Number of records fetched per page",
						Value: backfill.DefaultPageSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: backfill.DefaultReportInterval,
					},
					&cli.StringFlag{
						Name:  "start-after",
						Usage: "Resume after this record id",
					},
					&cli.IntFlag{
						Name:    "requests-per-minute",
						Usage:   "Pace embedding requests (0 = unpaced)",
						EnvVars: []string{"EMBEDDING_REQUESTS_PER_MINUTE"},
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve single-record embedding updates over HTTP",
				Action: serveCommand,
				Flags: append(connectionFlags(),
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   server.DefaultAddr,
						EnvVars: []string{"EMBEDSYNC_ADDR"},
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "Time allowed for in-flight requests on shutdown",
						Value: server.DefaultShutdownTimeout,
					},
				),
			},
			{
				Name:   "sanitize",
				Usage:  "Rewrite moderation-sensitive terms in a fine-tuning dataset",
				Action: sanitizeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Input JSONL dataset",
						Value:   "realestate_pairs_corrected.jsonl",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output JSONL dataset",
						Value:   "realestate_pairs_cleaned.jsonl",
					},
				},
			},
		},
	}
}

// connectionFlags are the store and provider flags shared by backfill and serve.
func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "driver",
			Usage:   "Record store (postgres, badger)",
			Value:   string(embedsync.DriverPostgres),
			EnvVars: []string{"EMBEDSYNC_DRIVER"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Postgres connection string",
			EnvVars: []string{"DATABASE_URL", "SUPABASE_DB_URL"},
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory (badger driver)",
			EnvVars: []string{"EMBEDSYNC_BADGER_PATH"},
		},
		&cli.StringFlag{
			Name:  "table",
			Usage: "Table holding the records",
			Value: postgres.DefaultTable,
		},
		&cli.StringFlag{
			Name:  "id-column",
			Usage: "Record id column",
			Value: postgres.DefaultIDColumn,
		},
		&cli.StringFlag{
			Name:  "content-column",
			Usage: "Text content column",
			Value: postgres.DefaultContentColumn,
		},
		&cli.StringFlag{
			Name:  "embedding-column",
			Usage: "Vector embedding column",
			Value: postgres.DefaultEmbeddingColumn,
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding provider API key",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "OpenAI-compatible base URL (empty = OpenAI)",
			EnvVars: []string{"OPENAI_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   ai.DefaultEmbeddingModel,
			EnvVars: []string{"EMBEDDING_MODEL"},
		},
		&cli.IntFlag{
			Name:    "embedding-dimensions",
			Usage:   "Expected embedding length (0 = unchecked)",
			Value:   ai.DefaultDimensions,
			EnvVars: []string{"EMBEDDING_DIMENSIONS"},
		},
		&cli.DurationFlag{
			Name:  "embedding-timeout",
			Usage: "Timeout for a single embedding request",
			Value: ai.DefaultTimeout,
		},
	}
}

// configFromFlags builds the service configuration from command flags.
func configFromFlags(c *cli.Context) *embedsync.Config {
	return &embedsync.Config{
		Store: embedsync.StoreConfig{
			Driver: embedsync.StoreDriver(strings.ToLower(c.String("driver"))),
			DSN:    c.String("database-url"),
			Postgres: postgres.Config{
				Table:           c.String("table"),
				IDColumn:        c.String("id-column"),
				ContentColumn:   c.String("content-column"),
				EmbeddingColumn: c.String("embedding-column"),
			},
			Path: c.String("db"),
		},
		AI: ai.NewConfig(
			ai.WithAPIKey(c.String("api-key")),
			ai.WithHost(c.String("embedding-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
			ai.WithDimensions(c.Int("embedding-dimensions")),
			ai.WithTimeout(c.Duration("embedding-timeout")),
		),
	}
}

// openService validates the configuration and opens the service.
// Configuration errors are fatal before anything is opened.
func openService(ctx context.Context, c *cli.Context) (*embedsync.Service, error) {
	cfg := configFromFlags(c)
	if err := cfg.Validate(); err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}

	svc, err := embedsync.New(ctx, cfg)
	if err != nil {
		if errors.Is(err, core.ErrConfiguration) {
			return nil, cli.Exit(err.Error(), 2)
		}
		return nil, fmt.Errorf("failed to open service: %w", err)
	}
	return svc, nil
}

func backfillCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := &backfill.Config{
		PageSize:          c.Int("page-size"),
		ReportInterval:    c.Int("report-interval"),
		StartAfter:        core.ID(c.String("start-after")),
		RequestsPerMinute: c.Int("requests-per-minute"),
	}
	if err := config.Validate(); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	svc, err := openService(ctx, c)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Fprintf(os.Stderr, "Store: %s\n", c.String("driver"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	report, err := svc.Backfill(ctx, config, os.Stderr)
	if report != nil {
		slog.Info("backfill report", "summary", report.String(), "last_id", report.LastID)
		if ids := report.FailedIDs(); len(ids) > 0 {
			slog.Warn("records failed and remain without embedding", "ids", ids)
		}
	}
	if err != nil {
		if errors.Is(err, core.ErrConfiguration) {
			return cli.Exit(err.Error(), 2)
		}
		resume := ""
		if report != nil && !report.LastID.IsZero() {
			resume = fmt.Sprintf(" (resume with --start-after %s)", report.LastID)
		}
		return fmt.Errorf("backfill stopped%s: %w", resume, err)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := openService(ctx, c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := server.DefaultConfig()
	cfg.Addr = c.String("addr")
	cfg.ShutdownTimeout = c.Duration("shutdown-timeout")

	srv, err := svc.NewServer(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return srv.Run(ctx)
}

func sanitizeCommand(c *cli.Context) error {
	in, out := c.String("input"), c.String("output")
	start := time.Now()

	stats, err := sanitize.CleanFile(in, out)
	if err != nil {
		return fmt.Errorf("sanitize failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Cleaned dataset saved to: %s\n", out)
	fmt.Fprintf(c.App.Writer, "Processed %d lines (%d changed, %d skipped) in %v\n",
		stats.Processed, stats.Changed, stats.Skipped, time.Since(start).Round(time.Millisecond))
	return nil
}

// loadEnvFile loads variables from path without overriding ones already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
