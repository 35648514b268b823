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

	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage"
)

// PageIterator walks the records missing an embedding one page at a time,
// using the last id it returned as the cursor for the next page.
// It is lazy: nothing is fetched until Next is called.
type PageIterator struct {
	repo     storage.RecordRepository
	pageSize int
	cursor   core.ID
	done     bool
}

// NewPageIterator creates an iterator that starts after the given id.
// An empty startAfter starts from the beginning.
func NewPageIterator(repo storage.RecordRepository, pageSize int, startAfter core.ID) *PageIterator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &PageIterator{
		repo:     repo,
		pageSize: pageSize,
		cursor:   startAfter,
	}
}

// Cursor returns the id of the last record handed out.
func (it *PageIterator) Cursor() core.ID {
	return it.cursor
}

// Next fetches the next page. It returns an empty page once the store is exhausted.
// Fetch errors are wrapped in core.ErrPersistence.
func (it *PageIterator) Next(ctx context.Context) ([]*core.Record, error) {
	if it.done {
		return nil, nil
	}

	page, err := it.repo.FindMissingEmbeddings(ctx, it.cursor, it.pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching page after %q: %w", core.ErrPersistence, it.cursor, err)
	}

	if len(page) == 0 {
		it.done = true
		return nil, nil
	}

	it.cursor = page[len(page)-1].Id
	return page, nil
}

// ForEach calls fn for every page until the store is exhausted.
// Iteration stops on the first error from fn or from a fetch.
// Context cancellation is checked between pages.
func (it *PageIterator) ForEach(ctx context.Context, fn func([]*core.Record) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		if err := fn(page); err != nil {
			return err
		}
	}
}
