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


package embedsync

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/embedsync/ai"
	"github.com/poiesic/embedsync/ai/openai"
	"github.com/poiesic/embedsync/backfill"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/server"
	"github.com/poiesic/embedsync/storage"
	"github.com/poiesic/embedsync/storage/badger"
	"github.com/poiesic/embedsync/storage/postgres"
	"github.com/poiesic/embedsync/syncer"
)

// Service owns the record store and the embedding provider and hands them to
// the batch and single-record drivers.
type Service struct {
	repo       storage.RecordRepository
	embedder   ai.Embedder
	dimensions int
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	repo     storage.RecordRepository
	embedder ai.Embedder
}

// WithRepository uses repo instead of opening the configured store.
// The Service takes ownership and closes it.
func WithRepository(repo storage.RecordRepository) Option {
	return func(o *serviceOptions) {
		o.repo = repo
	}
}

// WithEmbedder uses embedder instead of building the configured provider client.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *serviceOptions) {
		o.embedder = embedder
	}
}

// New validates cfg and builds the store and provider dependencies once.
// Configuration problems are reported before anything is opened.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Service, error) {
	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.AI == nil {
		cfg.AI = ai.DefaultConfig()
	}

	// A supplied repository is owned from here on and closed on every error path.
	fail := func(err error) (*Service, error) {
		if options.repo != nil {
			if closeErr := options.repo.Close(); closeErr != nil {
				slog.Default().Warn("error closing record store", "err", closeErr)
			}
		}
		return nil, err
	}

	if options.repo == nil {
		if err := cfg.Store.Validate(); err != nil {
			return nil, err
		}
	}
	if options.embedder == nil {
		if err := cfg.AI.Validate(); err != nil {
			return fail(err)
		}
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(cfg.AI)
		if err != nil {
			return fail(err)
		}
	}

	repo := options.repo
	if repo == nil {
		var err error
		repo, err = openRepository(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
	}

	return &Service{
		repo:       repo,
		embedder:   embedder,
		dimensions: cfg.AI.Dimensions,
		logger:     slog.Default().With("component", "service"),
	}, nil
}

func openRepository(ctx context.Context, cfg StoreConfig) (storage.RecordRepository, error) {
	switch cfg.Driver {
	case DriverBadger:
		return badger.Open(cfg.Path, cfg.InMemory)
	default:
		return postgres.Open(ctx, cfg.DSN, cfg.Postgres)
	}
}

// Close releases the record store.
func (s *Service) Close() error {
	if err := s.repo.Close(); err != nil {
		s.logger.Error("error closing record store", "err", err)
		return err
	}
	return nil
}

// Repository returns the record store.
func (s *Service) Repository() storage.RecordRepository {
	return s.repo
}

// NewSyncer builds a Syncer over the shared store and provider.
// The configured dimensionality check is applied before opts.
func (s *Service) NewSyncer(opts ...syncer.Option) (*syncer.Syncer, error) {
	all := append([]syncer.Option{syncer.WithDimensions(s.dimensions)}, opts...)
	return syncer.New(s.repo, s.embedder, all...)
}

// NewBackfiller builds the batch driver. Provider calls are paced by
// config.RequestsPerMinute.
func (s *Service) NewBackfiller(config *backfill.Config, progress io.Writer) (*backfill.Backfiller, error) {
	if config == nil {
		config = backfill.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sy, err := s.NewSyncer(syncer.WithRateLimit(config.RequestsPerMinute))
	if err != nil {
		return nil, err
	}
	return backfill.NewBackfiller(s.repo, sy, config, progress)
}

// NewServer builds the HTTP server for single-record updates.
func (s *Service) NewServer(config *server.Config) (*server.Server, error) {
	sy, err := s.NewSyncer()
	if err != nil {
		return nil, err
	}
	return server.New(sy, config)
}

// Backfill runs one batch reconciliation pass.
func (s *Service) Backfill(ctx context.Context, config *backfill.Config, progress io.Writer) (*backfill.Report, error) {
	b, err := s.NewBackfiller(config, progress)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx)
}

// Update regenerates the embedding of one record.
func (s *Service) Update(ctx context.Context, id core.ID, content any) error {
	sy, err := s.NewSyncer()
	if err != nil {
		return err
	}
	return sy.Update(ctx, id, content)
}
