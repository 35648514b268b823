package postgres

import (
	"fmt"
	"strings"

	"github.com/poiesic/embedsync/core"
)

const (
	DefaultTable           = "developments"
	DefaultIDColumn        = "id"
	DefaultContentColumn   = "content"
	DefaultEmbeddingColumn = "embedding"
)

// Config names the table and columns the repository reads and writes.
type Config struct {
	// Table may be schema-qualified, e.g. "public.developments".
	Table           string
	IDColumn        string
	ContentColumn   string
	EmbeddingColumn string

	// MaxOpenConns bounds the connection pool. Zero leaves the driver default.
	MaxOpenConns int
}

// DefaultConfig returns the layout of the developments table.
func DefaultConfig() Config {
	return Config{
		Table:           DefaultTable,
		IDColumn:        DefaultIDColumn,
		ContentColumn:   DefaultContentColumn,
		EmbeddingColumn: DefaultEmbeddingColumn,
	}
}

// Validate checks that every identifier is present.
func (c Config) Validate() error {
	fields := []struct{ name, value string }{
		{"Table", c.Table},
		{"IDColumn", c.IDColumn},
		{"ContentColumn", c.ContentColumn},
		{"EmbeddingColumn", c.EmbeddingColumn},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: postgres config: %s is required", core.ErrConfiguration, f.name)
		}
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("%w: postgres config: MaxOpenConns cannot be negative", core.ErrConfiguration)
	}
	return nil
}
