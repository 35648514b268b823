package backfill

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/embedsync/core"
)

// ProgressTracker tracks and reports progress of a backfill run.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	current        int
	updated        int
	skipped        int
	failed         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: records expected, as counted before the run
// reportInterval: report progress every N records; zero reports only at the end
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.lastReported = 0
	p.updated, p.skipped, p.failed = 0, 0, 0
}

// Record counts one processed record.
func (p *ProgressTracker) Record(outcome core.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	switch outcome.Status {
	case core.StatusUpdated:
		p.updated++
	case core.StatusSkipped:
		p.skipped++
	case core.StatusFailed:
		p.failed++
	}

	p.current++
	// Rows inserted during the run can push the count past the initial total
	if p.current > p.total {
		p.total = p.current
	}

	if p.reportInterval > 0 && p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer) // Print newline after final progress
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	rate := 0.0
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) updated=%d skipped=%d failed=%d - %.1f records/s",
		p.current, p.total, percentage, p.updated, p.skipped, p.failed, rate)
}
