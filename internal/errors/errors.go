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

// Package errors defines the error categories returned by the progress core.
// Every fallible operation returns an error that matches exactly one of the
// sentinels below through errors.Is, so callers can branch on the category
// without inspecting message text.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrValidation indicates the caller supplied invalid input (total, amount,
	// identifier, message length). Always reported before any filesystem access.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the tracker or group has not been initialized or
	// was already cleared.
	ErrNotFound = errors.New("not found")

	// ErrDecode indicates a backing file does not parse into a valid entity.
	// Recovery is to clear and reinitialize.
	ErrDecode = errors.New("malformed progress state")

	// ErrIO indicates an underlying read, write or rename failed.
	ErrIO = errors.New("io failure")

	// ErrStaleMirror indicates a member operation succeeded but the group
	// aggregate could not be refreshed afterwards.
	ErrStaleMirror = errors.New("group mirror not refreshed")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

// Validation builds a ValidationError for field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DecodeError reports a state file whose content is not a valid entity.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed progress state: %v", e.Err)
	}
	return fmt.Sprintf("malformed progress state in %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// IOError wraps a failed filesystem operation. The platform error is kept
// intact so its reason string reaches the caller verbatim.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NotFound wraps ErrNotFound with the identifier that was looked up.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q %w", kind, id, ErrNotFound)
}
