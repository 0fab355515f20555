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

// Package group composes many trackers into one addressable collection.
//
// A Registry owns the aggregate file progress-multi-{group}.json and holds
// handles to member trackers it has seen in the current process. Each member
// is also an ordinary tracker persisted under the scoped id {group}-{member},
// so the aggregate is a mirror of member state rather than its source of
// truth.
//
// The mirror is refreshed by Add, Remove, Done and Sync. Mutating a member
// handle directly updates only the member's own file; Status keeps returning
// the previously mirrored snapshot until one of the refreshing operations
// runs. A second process attaching to the same group sees no members until
// it calls Reconcile or Sync.
//
// Mirror refreshes are best effort. When a member operation succeeds but the
// aggregate cannot be rewritten, the member result is still returned together
// with an error matching errors.ErrStaleMirror.
package group
