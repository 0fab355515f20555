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

// Package stream drives tracker updates from an external source.
//
// Iterator is pulled by the caller: every Next advances the tracker by a
// fixed step. Observer is pushed byte chunks and records the running byte
// count as the tracker's current value; NewReader and NewWriter attach an
// Observer to an io.Reader or io.Writer without altering the data that flows
// through.
//
// Neither adapter starts goroutines or holds the tracker file open. Every
// update is one read-modify-write of the tracker file, so progress stays
// visible to other processes while the stream runs.
package stream
