package backfill

import (
	"fmt"
	"time"

	"github.com/poiesic/embedsync/core"
)

// Report summarizes a backfill run. Skipped and failed records are kept
// individually; updated records are only counted.
type Report struct {
	Updated int
	Skipped int
	Failed  int

	// Outcomes holds every skipped and failed outcome in processing order.
	Outcomes []core.Outcome

	// LastID is the id of the last record visited. Pass it as Config.StartAfter
	// to resume an interrupted run.
	LastID core.ID

	Elapsed time.Duration
}

// Add accounts for one processed record.
func (r *Report) Add(outcome core.Outcome) {
	switch outcome.Status {
	case core.StatusUpdated:
		r.Updated++
	case core.StatusSkipped:
		r.Skipped++
		r.Outcomes = append(r.Outcomes, outcome)
	case core.StatusFailed:
		r.Failed++
		r.Outcomes = append(r.Outcomes, outcome)
	}
	r.LastID = outcome.RecordID
}

// Processed returns the number of records visited.
func (r *Report) Processed() int {
	return r.Updated + r.Skipped + r.Failed
}

// FailedIDs returns the ids of failed records in processing order.
func (r *Report) FailedIDs() []core.ID {
	return r.idsWith(core.StatusFailed)
}

// SkippedIDs returns the ids of skipped records in processing order.
func (r *Report) SkippedIDs() []core.ID {
	return r.idsWith(core.StatusSkipped)
}

func (r *Report) idsWith(status core.OutcomeStatus) []core.ID {
	var ids []core.ID
	for _, o := range r.Outcomes {
		if o.Status == status {
			ids = append(ids, o.RecordID)
		}
	}
	return ids
}

func (r *Report) String() string {
	return fmt.Sprintf("processed=%d updated=%d skipped=%d failed=%d elapsed=%v",
		r.Processed(), r.Updated, r.Skipped, r.Failed, r.Elapsed.Round(time.Millisecond))
}
