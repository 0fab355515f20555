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

package state

import (
	"regexp"
	"unicode/utf8"

	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
)

// MaxIDLength is the longest identifier accepted for trackers and groups.
const MaxIDLength = 255

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateID rejects any identifier that could escape the base directory.
// field names the identifier in the returned error ("id", "group id", ...).
func ValidateID(field, id string) error {
	if id == "" {
		return progerrors.Validation(field, "must not be empty")
	}
	if len(id) > MaxIDLength {
		return progerrors.Validation(field, "must be at most %d characters, got %d", MaxIDLength, len(id))
	}
	if !idPattern.MatchString(id) {
		return progerrors.Validation(field, "%q may only contain letters, digits, '-' and '_'", id)
	}
	return nil
}

// ValidateMessage checks that message is valid UTF-8 no longer than maxRunes
// runes. A non-positive maxRunes falls back to DefaultMaxMessageLength.
func ValidateMessage(message string, maxRunes int) error {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxMessageLength
	}
	if !utf8.ValidString(message) {
		return progerrors.Validation("message", "must be valid UTF-8")
	}
	if n := utf8.RuneCountInString(message); n > maxRunes {
		return progerrors.Validation("message", "must be at most %d characters, got %d", maxRunes, n)
	}
	return nil
}
