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

package output

import "github.com/tuulbelt/cli-progress-reporting/internal/state"

// Printer renders the result of a CLI command.
type Printer interface {
	// Progress renders one tracker snapshot.
	Progress(id string, p state.Progress) error

	// Group renders a group aggregate.
	Group(id string, g state.Group) error

	// IDs renders a list of tracker or group identifiers.
	IDs(kind string, ids []string) error

	// Done reports that action completed for id without a snapshot to show.
	Done(action, id string) error
}

// ProgressRecord is the JSON form of a tracker snapshot.
type ProgressRecord struct {
	ID string `json:"id"`
	state.Progress
}

// GroupRecord is the JSON form of a group aggregate.
type GroupRecord struct {
	ID string `json:"id"`
	state.Group
}

// ListRecord is the JSON form of an identifier listing.
type ListRecord struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

// ActionRecord is the JSON form of a completed action.
type ActionRecord struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
}
