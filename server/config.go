package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/embedsync/core"
)

const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":8080"
	Addr string

	// ShutdownTimeout bounds graceful shutdown after the run context ends
	ShutdownTimeout time.Duration

	// MaxBodyBytes caps the request body size
	MaxBodyBytes int64

	// AllowedHeaders are returned to preflight requests that do not list any
	AllowedHeaders []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:            DefaultAddr,
		ShutdownTimeout: DefaultShutdownTimeout,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		AllowedHeaders:  []string{"Content-Type", "Authorization", "X-Request-ID"},
	}
}

// Validate checks the configuration. Errors wrap core.ErrConfiguration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: server config: Addr is required", core.ErrConfiguration)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: server config: ShutdownTimeout cannot be negative", core.ErrConfiguration)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server config: MaxBodyBytes must be positive", core.ErrConfiguration)
	}
	return nil
}
