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


package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/embedsync/core"
)

const (
	// DefaultEmbeddingModel is the OpenAI model the store's vector column was sized for.
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultDimensions is the output size of DefaultEmbeddingModel.
	DefaultDimensions = 1536

	// DefaultTimeout bounds a single provider request.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the embedding provider.
type Config struct {
	// APIKey authenticates against the provider. Required unless Host points at a
	// local OpenAI-compatible server that does not check tokens.
	APIKey string

	// Host is the base URL of an OpenAI-compatible API.
	// Empty means the public OpenAI endpoint.
	// Example: "http://localhost:11434/v1"
	Host string

	// EmbeddingModel is the model identifier sent with every request.
	EmbeddingModel string

	// Dimensions is the expected vector length. Zero disables the check.
	Dimensions int

	// Timeout bounds a single provider request. Zero means no timeout.
	Timeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithHost sets the provider base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithDimensions sets the expected embedding length.
func WithDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dims
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// DefaultConfig returns a Config for the public OpenAI API. The API key is left empty.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingModel: DefaultEmbeddingModel,
		Dimensions:     DefaultDimensions,
		Timeout:        DefaultTimeout,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// A non-empty Host gets the /v1 suffix OpenAI-compatible servers expect.
func (c *Config) Normalize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.EmbeddingModel = strings.TrimSpace(c.EmbeddingModel)
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is complete.
// It normalizes first. Every failure wraps core.ErrConfiguration.
func (c *Config) Validate() error {
	c.Normalize()

	if c.APIKey == "" && c.Host == "" {
		return fmt.Errorf("%w: ai config: APIKey is required", core.ErrConfiguration)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: ai config: EmbeddingModel is required", core.ErrConfiguration)
	}
	if c.Dimensions < 0 {
		return fmt.Errorf("%w: ai config: Dimensions cannot be negative", core.ErrConfiguration)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: ai config: Timeout cannot be negative", core.ErrConfiguration)
	}
	return nil
}
