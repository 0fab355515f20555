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

// Package config types define the configuration structures used by prog.
// These types represent settings that can be loaded from YAML configuration
// files, environment variables, or command-line flags.
package config

import "time"

// Config represents the complete configuration for prog.
type Config struct {
	State    StateConfig              `yaml:"state"`
	Trackers map[string]TrackerConfig `yaml:"trackers"`
	Log      LogConfig                `yaml:"log"`
	Metrics  MetricsConfig            `yaml:"metrics"`
	Retry    RetryConfig              `yaml:"retry"`
}

// StateConfig controls where and how progress state is persisted.
type StateConfig struct {
	// Dir is the base directory for state files. Empty means the platform
	// temporary directory, resolved on every operation.
	Dir              string `yaml:"dir"`
	MaxMessageLength int    `yaml:"max_message_length"`
	Monotonic        bool   `yaml:"monotonic"`
}

// TrackerConfig contains per-tracker overrides keyed by tracker id. Group
// members use the entry keyed by their group id.
type TrackerConfig struct {
	Monotonic        *bool `yaml:"monotonic"`
	MaxMessageLength int   `yaml:"max_message_length"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// MetricsConfig controls the optional node_exporter textfile export.
type MetricsConfig struct {
	// File receives store and tracker metrics after every command. Empty
	// disables the export.
	File string `yaml:"file"`
}

// RetryConfig controls caller-level retries of IO failures.
type RetryConfig struct {
	MaxRetries        int           `yaml:"max_retries"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// DefaultConfig returns a Config with the built-in defaults. Retries are off
// unless requested.
func DefaultConfig() *Config {
	return &Config{
		State: StateConfig{
			Dir:              "",
			MaxMessageLength: 10000,
			Monotonic:        false,
		},
		Trackers: make(map[string]TrackerConfig),
		Log: LogConfig{
			Level: "warn",
		},
		Retry: RetryConfig{
			MaxRetries:        0,
			InitialBackoff:    50 * time.Millisecond,
			MaxBackoff:        2 * time.Second,
			BackoffMultiplier: 2.0,
		},
	}
}
