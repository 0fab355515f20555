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
	"fmt"
	"math"
)

// DefaultMaxMessageLength bounds the size of Progress.Message in runes.
const DefaultMaxMessageLength = 10000

// Progress is one unit of trackable work as persisted in progress-{id}.json.
// Timestamps are milliseconds since the Unix epoch.
type Progress struct {
	// Total is the number of units of work. Fixed at creation.
	Total int `json:"total"`

	// Current is the number of completed units, always within [0, Total].
	Current int `json:"current"`

	// Message describes the current activity.
	Message string `json:"message"`

	// Percentage is round(Current/Total*100); it is derived, never set directly.
	Percentage int `json:"percentage"`

	// StartTime is when the tracker was initialized.
	StartTime int64 `json:"startTime"`

	// UpdatedTime is when the tracker was last mutated.
	UpdatedTime int64 `json:"updatedTime"`

	// Complete reports whether Current reached Total or the tracker was finished.
	Complete bool `json:"complete"`
}

// Percentage computes round(current/total*100). It returns 0 when total is
// not positive.
func Percentage(current, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(current) / float64(total) * 100))
}

// Validate checks the invariants every persisted entity must satisfy.
func (p Progress) Validate() error {
	if p.Total <= 0 {
		return fmt.Errorf("total must be positive, got %d", p.Total)
	}
	if p.Current < 0 || p.Current > p.Total {
		return fmt.Errorf("current %d outside [0, %d]", p.Current, p.Total)
	}
	if want := Percentage(p.Current, p.Total); p.Percentage != want {
		return fmt.Errorf("percentage %d does not match current/total (%d)", p.Percentage, want)
	}
	if p.StartTime > p.UpdatedTime {
		return fmt.Errorf("startTime %d is after updatedTime %d", p.StartTime, p.UpdatedTime)
	}
	return nil
}

// Group is the aggregate snapshot persisted in progress-multi-{id}.json. It
// mirrors member trackers and may lag behind their own files.
type Group struct {
	Trackers map[string]Progress `json:"trackers"`
	Meta     GroupMeta           `json:"meta"`
}

// GroupMeta records when the aggregate was created and last rewritten.
type GroupMeta struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}

// NewGroup returns an empty aggregate stamped with now.
func NewGroup(now int64) Group {
	return Group{
		Trackers: make(map[string]Progress),
		Meta:     GroupMeta{Created: now, Updated: now},
	}
}
