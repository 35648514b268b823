package backfill

import (
	"fmt"

	"github.com/poiesic/embedsync/core"
)

const (
	// DefaultPageSize is the default number of records fetched per page.
	DefaultPageSize = 100

	// DefaultReportInterval is how many records pass between progress lines.
	DefaultReportInterval = 100
)

// Config holds configuration for a backfill run.
type Config struct {
	// PageSize is the number of records fetched from the store at a time
	PageSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// StartAfter resumes a previous run from the record after this id
	StartAfter core.ID

	// RequestsPerMinute paces provider calls; zero means unpaced
	RequestsPerMinute int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PageSize:       DefaultPageSize,
		ReportInterval: DefaultReportInterval,
	}
}

// Validate checks the configuration. Errors wrap core.ErrConfiguration.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: %w", core.ErrConfiguration, ErrInvalidPageSize)
	}
	if c.ReportInterval < 0 {
		return fmt.Errorf("%w: %w", core.ErrConfiguration, ErrInvalidReportInterval)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: requests per minute cannot be negative", core.ErrConfiguration)
	}
	return nil
}
