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


package core

import (
	"strconv"
	"time"
)

// ID is the opaque, store-assigned identifier of a record.
// Integer identifiers are carried in their decimal text form.
type ID string

// IDFromInt converts an integer identifier to an ID.
func IDFromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// Vector is an embedding produced by the embedding provider.
// Its dimensionality is fixed by the model in use.
type Vector []float32

// Record is a row of the record store.
type Record struct {
	Id ID

	// Content is the raw value held in the content column or supplied by a caller.
	// nil means absent. Text arrives as string (or []byte from some drivers);
	// any other type is treated as wrong-type content.
	Content any

	// Embedding is nil until the record has been synchronized.
	Embedding Vector
}

// Eligible reports whether the record still lacks an embedding.
func (r *Record) Eligible() bool {
	return len(r.Embedding) == 0
}

// OutcomeStatus tags the result of synchronizing one record.
type OutcomeStatus int

const (
	// StatusUpdated means an embedding was generated and persisted.
	StatusUpdated OutcomeStatus = iota + 1
	// StatusSkipped means the content was not usable; nothing was called.
	StatusSkipped
	// StatusFailed means the provider or the store returned an error.
	StatusFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case StatusUpdated:
		return "updated"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the per-record result used for reporting. It is never persisted.
type Outcome struct {
	RecordID ID
	Status   OutcomeStatus
	Reason   SkipReason // set when Status is StatusSkipped
	Err      error      // set when Status is StatusFailed
	At       time.Time
}

// Updated returns an Outcome for a record whose embedding was written.
func Updated(id ID) Outcome {
	return Outcome{RecordID: id, Status: StatusUpdated, At: time.Now().UTC()}
}

// Skipped returns an Outcome for a record whose content was rejected.
func Skipped(id ID, reason SkipReason) Outcome {
	return Outcome{RecordID: id, Status: StatusSkipped, Reason: reason, At: time.Now().UTC()}
}

// Failed returns an Outcome for a record whose generation or write failed.
func Failed(id ID, err error) Outcome {
	return Outcome{RecordID: id, Status: StatusFailed, Err: err, At: time.Now().UTC()}
}

// Category returns the error category of a failed outcome.
// Skipped outcomes report CategoryInput; updated outcomes report CategoryNone.
func (o Outcome) Category() Category {
	switch o.Status {
	case StatusSkipped:
		return CategoryInput
	case StatusFailed:
		return CategoryOf(o.Err)
	default:
		return CategoryNone
	}
}
