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

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:        maxRetries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func ioFailure() error {
	return &progerrors.IOError{Op: "write temporary file", Path: "/tmp/x", Err: errors.New("disk full")}
}

func TestDoRetriesIOErrors(t *testing.T) {
	tests := []struct {
		name             string
		maxFailures      int
		maxRetries       int
		expectError      bool
		expectedAttempts int
	}{
		{"succeeds first time", 0, 3, false, 1},
		{"succeeds after one retry", 1, 3, false, 2},
		{"succeeds after max retries", 3, 3, false, 4},
		{"fails after max retries exceeded", 5, 3, true, 4},
		{"no retries configured", 1, 0, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Do(context.Background(), fastConfig(tt.maxRetries), func() error {
				attempts++
				if attempts <= tt.maxFailures {
					return ioFailure()
				}
				return nil
			})

			assert.Equal(t, tt.expectedAttempts, attempts)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, progerrors.ErrIO)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDoDoesNotRetryDeterministicErrors(t *testing.T) {
	for _, sentinel := range []error{progerrors.ErrValidation, progerrors.ErrNotFound, progerrors.ErrDecode} {
		attempts := 0
		err := Do(context.Background(), fastConfig(3), func() error {
			attempts++
			return sentinel
		})
		assert.Same(t, sentinel, err)
		assert.Equal(t, 1, attempts, "%v must not be retried", sentinel)
	}
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour, BackoffMultiplier: 1}

	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, cfg, func() error {
		attempts++
		return ioFailure()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDoValue(t *testing.T) {
	attempts := 0
	v, err := DoValue(context.Background(), fastConfig(2), func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, ioFailure()
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestBackoffIsCapped(t *testing.T) {
	cfg := &Config{InitialBackoff: 10 * time.Millisecond, MaxBackoff: 40 * time.Millisecond, BackoffMultiplier: 2}

	for attempt, want := range []time.Duration{10, 20, 40, 40, 40} {
		want *= time.Millisecond
		got := cfg.backoff(attempt)
		assert.InDelta(t, float64(want), float64(got), float64(want)*0.1+1, "attempt %d", attempt)
	}
}
