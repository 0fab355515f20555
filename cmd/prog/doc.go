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

// Package main implements the prog command-line interface.
// prog records the progress of long-running work in small JSON files so
// that separate processes can report and observe it.
//
// The CLI supports:
//   - Single trackers: init, increment, set, finish, get, clear
//   - Listing every tracker and group in the state directory
//   - Groups of trackers under the multi subcommand
//   - Human-readable output by default, NDJSON with --json
//
// Usage:
//
//	prog init --id build --total 100 --message "Building"
//	prog increment --id build --amount 5
//	prog multi add --id deploy --tracker upload --total 10
//
// Exit codes:
//   - 0: Success
//   - 1: Any error
package main
