// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for prog with support for
// multiple configuration sources and a well-defined precedence order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Built-in defaults
//
// Command-line flags are applied by the caller after LoadConfig returns.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfig.
const (
	EnvDir              = "PROG_DIR"
	EnvMaxMessageLength = "PROG_MAX_MESSAGE_LENGTH"
	EnvMonotonic        = "PROG_MONOTONIC"
	EnvLogLevel         = "PROG_LOG_LEVEL"
	EnvMetricsFile      = "PROG_METRICS_FILE"
	EnvRetries          = "PROG_RETRIES"
)

var logLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
	"dpanic": true, "panic": true, "fatal": true,
}

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .prog.yaml (current directory)
//   - .prog.yml (current directory)
//   - ~/.prog/config.yaml
//   - ~/.prog/config.yml
//
// Environment variables are applied after loading the config file. Path
// expansion (~ and environment variables) is performed on the state and
// metrics paths.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		home := homeDir()
		defaultPaths := []string{".prog.yaml", ".prog.yml"}
		if home != "" {
			defaultPaths = append(defaultPaths,
				filepath.Join(home, ".prog", "config.yaml"),
				filepath.Join(home, ".prog", "config.yml"),
			)
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.State.Dir = expandPath(cfg.State.Dir)
	cfg.Metrics.File = expandPath(cfg.Metrics.File)
	if cfg.Trackers == nil {
		cfg.Trackers = make(map[string]TrackerConfig)
	}

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
// Malformed numeric values are rejected rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	if dir := os.Getenv(EnvDir); dir != "" {
		cfg.State.Dir = dir
	}
	if v := os.Getenv(EnvMaxMessageLength); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxMessageLength, err)
		}
		cfg.State.MaxMessageLength = n
	}
	if v := os.Getenv(EnvMonotonic); v != "" {
		cfg.State.Monotonic = parseBool(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvMetricsFile); v != "" {
		cfg.Metrics.File = v
	}
	if v := os.Getenv(EnvRetries); v != "" {
		n, err := parseNonNegativeInt(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRetries, err)
		}
		cfg.Retry.MaxRetries = n
	}
	return nil
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home = os.Getenv("USERPROFILE") // Windows
	}
	return home
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(homeDir(), path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	i, err := parseNonNegativeInt(s)
	if err != nil {
		return 0, err
	}
	if i == 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

func parseNonNegativeInt(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i < 0 {
		return 0, fmt.Errorf("value must not be negative, got: %d", i)
	}
	return i, nil
}

// parseBool parses various boolean representations
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// MonotonicFor returns whether Set may lower current for tracker id,
// honouring a per-tracker override.
func (c *Config) MonotonicFor(id string) bool {
	if tc, ok := c.Trackers[id]; ok && tc.Monotonic != nil {
		return *tc.Monotonic
	}
	return c.State.Monotonic
}

// MaxMessageLengthFor returns the message limit for tracker id, honouring a
// per-tracker override.
func (c *Config) MaxMessageLengthFor(id string) int {
	if tc, ok := c.Trackers[id]; ok && tc.MaxMessageLength > 0 {
		return tc.MaxMessageLength
	}
	return c.State.MaxMessageLength
}

// Validate checks if the configuration contains valid values. This should be
// called after flags have been applied to catch invalid settings early.
func (c *Config) Validate() error {
	if c.State.MaxMessageLength <= 0 {
		return fmt.Errorf("max message length must be positive, got: %d", c.State.MaxMessageLength)
	}
	for id, tc := range c.Trackers {
		if tc.MaxMessageLength < 0 {
			return fmt.Errorf("tracker %s: max message length must not be negative, got: %d", id, tc.MaxMessageLength)
		}
	}
	if !logLevels[c.Log.Level] {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got: %d", c.Retry.MaxRetries)
	}
	if c.Retry.InitialBackoff <= 0 || c.Retry.MaxBackoff <= 0 {
		return fmt.Errorf("retry backoff durations must be positive")
	}
	if c.Retry.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff multiplier must be at least 1, got: %g", c.Retry.BackoffMultiplier)
	}
	return nil
}
