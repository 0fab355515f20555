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

// Package retry layers exponential backoff over core operations. The core
// never retries on its own; callers opt in per call, and only IO failures
// are retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
)

// Config configures the retry behavior.
type Config struct {
	// MaxRetries is the maximum number of retry attempts after the first try.
	MaxRetries int
	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration
	// BackoffMultiplier is the growth factor between attempts.
	BackoffMultiplier float64
	// Logger receives a warning per retry. Defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultConfig returns the default retry configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:        3,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Do calls fn until it succeeds, fails with a non-retryable error, the
// context is cancelled or cfg.MaxRetries retries have been used. A nil cfg
// uses DefaultConfig.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoValue(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoValue is Do for operations that return a value.
func DoValue[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !Retryable(err) || attempt == cfg.MaxRetries {
			break
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		backoff := cfg.backoff(attempt)
		logger.Warn("retrying after io failure",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", cfg.MaxRetries),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}

	if cfg.MaxRetries > 0 && Retryable(lastErr) {
		return zero, fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
	}
	return zero, lastErr
}

// Retryable reports whether err is worth retrying. Validation, not-found and
// decode failures are deterministic and are never retried.
func Retryable(err error) bool {
	return errors.Is(err, progerrors.ErrIO)
}

// backoff returns the wait before retry number attempt+1, with ±10% jitter.
func (c *Config) backoff(attempt int) time.Duration {
	backoff := float64(c.InitialBackoff) * math.Pow(c.BackoffMultiplier, float64(attempt))
	if c.MaxBackoff > 0 && backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}
	jitter := backoff * 0.1 * (2*rand.Float64() - 1)
	return time.Duration(backoff + jitter)
}
