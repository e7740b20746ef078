// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// Config is the file form of a stack's options.
//
//	min_chunk_size = 65536
//	max_bytes = 16777216
//	provider = "system"
//	zero_memory = true
//	max_fill_attempts = 4
type Config struct {
	MinChunkSize    int    `toml:"min_chunk_size"`
	MaxBytes        int    `toml:"max_bytes"`
	Provider        string `toml:"provider"`
	ZeroMemory      *bool  `toml:"zero_memory"`
	MaxFillAttempts int    `toml:"max_fill_attempts"`
}

// ParseConfig decodes a TOML document into a Config and validates it.
// Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("memlifo: failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads and parses the TOML file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memlifo: failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks the values of c.
func (c *Config) Validate() error {
	if c.MinChunkSize < 0 {
		return fmt.Errorf("memlifo: min_chunk_size must not be negative, got %d", c.MinChunkSize)
	}
	if c.MaxBytes < 0 {
		return fmt.Errorf("memlifo: max_bytes must not be negative, got %d", c.MaxBytes)
	}
	if c.MaxBytes > 0 && c.MinChunkSize > c.MaxBytes {
		return fmt.Errorf("memlifo: min_chunk_size %d exceeds max_bytes %d", c.MinChunkSize, c.MaxBytes)
	}
	if c.MaxFillAttempts < 0 {
		return fmt.Errorf("memlifo: max_fill_attempts must not be negative, got %d", c.MaxFillAttempts)
	}
	switch c.Provider {
	case "", providerHeap, providerSystem:
	default:
		return fmt.Errorf("memlifo: unknown provider %q", c.Provider)
	}
	return nil
}

// Options converts c into stack options. logger may be nil.
func (c *Config) Options(logger *zap.Logger) []Option {
	var opts []Option
	if c.MinChunkSize > 0 {
		opts = append(opts, WithMinChunkSize(c.MinChunkSize))
	}
	if c.MaxBytes > 0 {
		opts = append(opts, WithMaxBytes(c.MaxBytes))
	}
	if c.Provider == providerSystem {
		opts = append(opts, WithProvider(SystemProvider()))
	}
	if c.ZeroMemory != nil {
		opts = append(opts, WithZeroing(*c.ZeroMemory))
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	return opts
}

// FillOptions converts c into Fill options.
func (c *Config) FillOptions() []FillOption {
	if c.MaxFillAttempts > 0 {
		return []FillOption{WithMaxAttempts(c.MaxFillAttempts)}
	}
	return nil
}
