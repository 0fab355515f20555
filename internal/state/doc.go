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

// Package state provides the progress entity model, its JSON codec and the
// atomic file store shared by every tracker.
//
// State files live in a single base directory. Every write goes to a
// uniquely named temporary file in that directory and is then renamed onto
// the target path, so readers observe either the complete previous content
// or the complete new content and never a partial buffer. No locks are taken;
// concurrent writers follow last-writer-wins.
//
// File layout:
//
//	progress-{id}.json        one Progress entity
//	progress-multi-{id}.json  one Group aggregate
//
// Example usage:
//
//	store := state.NewStore(state.Config{Dir: "/var/run/jobs"})
//	p := state.Progress{Total: 100, StartTime: now, UpdatedTime: now}
//	err := store.WriteProgress(store.ProgressPath("build"), p)
package state
