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


package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/embedsync/ai"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
	"golang.org/x/time/rate"
)

// Syncer holds the synchronization routine shared by the batch and
// single-record drivers: validate content, generate a vector, write it back.
// A Syncer is safe for concurrent use.
type Syncer struct {
	repo       storage.RecordRepository
	embedder   ai.Embedder
	dimensions int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Syncer.
type Option func(*Syncer) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithDimensions rejects provider vectors whose length differs from n.
// Zero disables the check.
func WithDimensions(n int) Option {
	return func(s *Syncer) error {
		if n < 0 {
			return fmt.Errorf("%w: dimensions cannot be negative", core.ErrConfiguration)
		}
		s.dimensions = n
		return nil
	}
}

// WithRateLimit paces provider calls to at most rpm requests per minute.
// Zero disables pacing. Pacing only delays calls; it never retries them.
func WithRateLimit(rpm int) Option {
	return func(s *Syncer) error {
		if rpm < 0 {
			return fmt.Errorf("%w: requests per minute cannot be negative", core.ErrConfiguration)
		}
		if rpm == 0 {
			s.limiter = nil
			return nil
		}
		s.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
		return nil
	}
}

// New creates a Syncer over repo and embedder.
func New(repo storage.RecordRepository, embedder ai.Embedder, opts ...Option) (*Syncer, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: record repository is required", core.ErrConfiguration)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", core.ErrConfiguration)
	}

	s := &Syncer{
		repo:     repo,
		embedder: embedder,
		logger:   slog.Default().With("component", "syncer"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Generate asks the provider for the embedding of text. It makes exactly one
// provider call. Every failure is wrapped in core.ErrUpstreamProvider, except
// cancellation of ctx, which is returned as ctx.Err().
func (s *Syncer) Generate(ctx context.Context, text string) (core.Vector, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamProvider, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamProvider, ErrEmptyVector)
	}
	if s.dimensions > 0 && len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: %w: got %d, want %d",
			core.ErrUpstreamProvider, ErrDimensionMismatch, len(vector), s.dimensions)
	}
	return vector, nil
}

// Write persists vector as the embedding of the record with the given id.
// Failures are wrapped in core.ErrPersistence unless ctx was cancelled.
func (s *Syncer) Write(ctx context.Context, id core.ID, vector core.Vector) error {
	if err := s.repo.UpdateEmbedding(ctx, id, vector); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return nil
}

// Sync processes one record selected by the batch driver and reports what happened.
// Unusable content is skipped without calling the provider.
func (s *Syncer) Sync(ctx context.Context, record *core.Record) core.Outcome {
	text, reason := core.ValidateRecord(record)
	if reason != core.SkipNone {
		var id core.ID
		if record != nil {
			id = record.Id
		}
		return core.Skipped(id, reason)
	}

	vector, err := s.Generate(ctx, text)
	if err != nil {
		return core.Failed(record.Id, err)
	}

	if err := s.Write(ctx, record.Id, vector); err != nil {
		return core.Failed(record.Id, err)
	}

	s.logger.Debug("embedding updated", "id", record.Id, "dimensions", len(vector))
	return core.Updated(record.Id)
}

// Update regenerates and overwrites the embedding of one record from caller-supplied
// content. The write happens regardless of any embedding already stored.
func (s *Syncer) Update(ctx context.Context, id core.ID, content any) error {
	if id.IsZero() {
		return fmt.Errorf("%w: %w", core.ErrInput, core.ErrMissingID)
	}

	text, reason := core.ValidateContent(content)
	if reason != core.SkipNone {
		return reason.Err()
	}

	vector, err := s.Generate(ctx, text)
	if err != nil {
		return err
	}

	if err := s.Write(ctx, id, vector); err != nil {
		return err
	}

	s.logger.Debug("embedding updated", "id", id, "dimensions", len(vector))
	return nil
}
