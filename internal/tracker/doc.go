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

// Package tracker manages the lifecycle of a single progress entity.
//
// A Tracker is a handle on one backing file, progress-{id}.json, in the
// store's base directory. Every mutating call is an independent
// read-modify-write cycle: the current entity is read, the new state is
// computed in memory and the result is written back atomically. Nothing is
// held between calls, so any number of processes may drive the same tracker.
// Concurrent writers are last-writer-wins; increments are not additive across
// processes.
//
// The lifecycle is Uninitialized, Active, Complete:
//
//	t, err := tracker.New("build", tracker.Config{Dir: dir})
//	if err != nil {
//		return err
//	}
//	if _, err := t.Init(100, "starting"); err != nil {
//		return err
//	}
//	if _, err := t.Increment(10, tracker.WithMessage("compiling")); err != nil {
//		return err
//	}
//	p, err := t.Finish(tracker.WithMessage("done"))
//
// Input validation happens before any filesystem access. A failed call
// leaves the backing file exactly as it was.
//
// Tracker ids starting with "multi-" share a file name with group
// aggregates: tracker "multi-x" and group "x" are both stored in
// progress-multi-x.json. Init refuses to replace a file that holds a group
// aggregate, and the store lists such files as groups, never as trackers.
package tracker
