package backfill

import "errors"

var (
	// ErrInvalidPageSize is returned when PageSize is not positive.
	ErrInvalidPageSize = errors.New("page size must be greater than 0")

	// ErrInvalidReportInterval is returned when ReportInterval is negative.
	ErrInvalidReportInterval = errors.New("report interval cannot be negative")
)
