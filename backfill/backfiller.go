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


package backfill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
)

// Synchronizer processes a single record and reports the outcome.
// *syncer.Syncer implements it.
type Synchronizer interface {
	Sync(ctx context.Context, record *core.Record) core.Outcome
}

// Backfiller fills in the embedding of every record that lacks one.
type Backfiller struct {
	repo     storage.RecordRepository
	syncer   Synchronizer
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewBackfiller creates a new backfiller.
// progress: where to write progress output (typically os.Stderr); nil disables it
func NewBackfiller(repo storage.RecordRepository, syncer Synchronizer, config *Config, progress io.Writer) (*Backfiller, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if repo == nil || syncer == nil {
		return nil, fmt.Errorf("%w: backfill needs a repository and a synchronizer", core.ErrConfiguration)
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Backfiller{
		repo:     repo,
		syncer:   syncer,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "backfill"),
	}, nil
}

// Run processes every record missing an embedding, in id order, one at a time.
//
// Skipped and failed records are logged and recorded in the report; the run
// continues past them. A page-fetch error or context cancellation stops the run
// and is returned together with the partial report. The report is never nil.
func (b *Backfiller) Run(ctx context.Context) (*Report, error) {
	report := &Report{LastID: b.config.StartAfter}
	started := time.Now()
	defer func() { report.Elapsed = time.Since(started) }()

	total, err := b.repo.CountMissingEmbeddings(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: counting records: %w", core.ErrPersistence, err)
	}
	if total == 0 {
		fmt.Fprintf(b.progress, "No records missing an embedding\n")
		b.logger.Info("nothing to backfill")
		return report, nil
	}

	fmt.Fprintf(b.progress, "Starting backfill of %d records (page size: %d)\n", total, b.config.PageSize)
	b.logger.Info("backfill started", "count", total, "start_after", b.config.StartAfter)

	tracker := NewProgressTracker(b.progress, total, b.config.ReportInterval)
	tracker.Start()

	iterator := NewPageIterator(b.repo, b.config.PageSize, b.config.StartAfter)
	err = iterator.ForEach(ctx, func(page []*core.Record) error {
		for _, record := range page {
			if err := ctx.Err(); err != nil {
				return err
			}

			outcome := b.syncer.Sync(ctx, record)
			if err := ctx.Err(); err != nil && outcome.Status != core.StatusUpdated {
				// Interrupted mid-record: leave it out so LastID still resumes at it.
				return err
			}
			report.Add(outcome)
			tracker.Record(outcome)
			b.logOutcome(outcome)
		}
		return nil
	})
	tracker.Finish()

	if err != nil {
		b.logger.Error("backfill stopped", "err", err, "last_id", report.LastID,
			"updated", report.Updated, "skipped", report.Skipped, "failed", report.Failed)
		return report, err
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(b.progress, "Backfill complete. Processed %d records in %v (updated %d, skipped %d, failed %d)\n",
		report.Processed(), elapsed.Round(time.Second), report.Updated, report.Skipped, report.Failed)
	b.logger.Info("backfill complete",
		"updated", report.Updated, "skipped", report.Skipped, "failed", report.Failed)

	return report, nil
}

func (b *Backfiller) logOutcome(outcome core.Outcome) {
	switch outcome.Status {
	case core.StatusSkipped:
		b.logger.Warn("record skipped", "id", outcome.RecordID, "reason", outcome.Reason)
	case core.StatusFailed:
		b.logger.Error("record failed", "id", outcome.RecordID,
			"category", outcome.Category(), "err", outcome.Err)
	default:
		b.logger.Debug("record updated", "id", outcome.RecordID)
	}
}
