package embedsync

import (
	"fmt"
	"strings"

	"github.com/poiesic/embedsync/ai"
	"github.com/poiesic/embedsync/core"
	"github.com/poiesic/embedsync/storage/postgres"
)

// StoreDriver selects the record store backend.
type StoreDriver string

const (
	DriverPostgres StoreDriver = "postgres"
	DriverBadger   StoreDriver = "badger"
)

// StoreConfig describes how to reach the record store.
type StoreConfig struct {
	Driver StoreDriver

	// DSN is the Postgres connection string (DriverPostgres)
	DSN string

	// Postgres names the table and columns (DriverPostgres)
	Postgres postgres.Config

	// Path is the database directory (DriverBadger)
	Path string

	// InMemory keeps the Badger store in memory (DriverBadger)
	InMemory bool
}

// Config holds everything needed to build a Service.
type Config struct {
	Store StoreConfig
	AI    *ai.Config
}

// DefaultConfig returns a Postgres configuration for the developments table.
// The DSN and API key are left empty.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:   DriverPostgres,
			Postgres: postgres.DefaultConfig(),
		},
		AI: ai.DefaultConfig(),
	}
}

// Validate checks the store and provider configuration.
// Every failure wraps core.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if c.AI == nil {
		return fmt.Errorf("%w: ai config is required", core.ErrConfiguration)
	}
	return c.AI.Validate()
}

// Validate checks the store configuration for the selected driver.
func (s *StoreConfig) Validate() error {
	switch s.Driver {
	case DriverPostgres:
		if strings.TrimSpace(s.DSN) == "" {
			return fmt.Errorf("%w: store config: DSN is required for %s", core.ErrConfiguration, s.Driver)
		}
		return s.Postgres.Validate()
	case DriverBadger:
		if !s.InMemory && strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("%w: store config: Path is required for %s", core.ErrConfiguration, s.Driver)
		}
		return nil
	default:
		return fmt.Errorf("%w: store config: unknown driver %q", core.ErrConfiguration, s.Driver)
	}
}
