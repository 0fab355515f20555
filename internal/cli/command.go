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

// Package cli holds the command model of the prog tool. Parsing produces one
// Command value per invocation and Dispatch executes it against the tracker
// and group packages.
package cli

// Command is one parsed CLI action. The concrete types below are the only
// implementations; Dispatch handles every one of them.
type Command interface {
	command()
}

// Init creates or resets a tracker.
type Init struct {
	ID      string
	Total   int
	Message string
}

// Increment adds Amount to a tracker.
type Increment struct {
	ID      string
	Amount  int
	Message *string
}

// Set replaces a tracker's current value.
type Set struct {
	ID      string
	Value   int
	Message *string
}

// Finish marks a tracker complete.
type Finish struct {
	ID      string
	Message *string
}

// Get prints a tracker snapshot.
type Get struct {
	ID string
}

// Clear deletes a tracker.
type Clear struct {
	ID string
}

// List prints every tracker and group in the base directory.
type List struct{}

// GroupInit creates a group aggregate if it does not exist.
type GroupInit struct {
	Group string
}

// GroupAdd adds a member to a group. An empty Tracker generates an id.
type GroupAdd struct {
	Group   string
	Tracker string
	Total   int
	Message string
}

// GroupStatus prints the stored aggregate.
type GroupStatus struct {
	Group string
}

// GroupDone finishes every member of a group.
type GroupDone struct {
	Group string
}

// GroupClear deletes every member and the aggregate.
type GroupClear struct {
	Group string
}

// GroupSync refreshes the aggregate from member files.
type GroupSync struct {
	Group string
}

// GroupRemove deletes one member.
type GroupRemove struct {
	Group   string
	Tracker string
}

func (Init) command()        {}
func (Increment) command()   {}
func (Set) command()         {}
func (Finish) command()      {}
func (Get) command()         {}
func (Clear) command()       {}
func (List) command()        {}
func (GroupInit) command()   {}
func (GroupAdd) command()    {}
func (GroupStatus) command() {}
func (GroupDone) command()   {}
func (GroupClear) command()  {}
func (GroupSync) command()   {}
func (GroupRemove) command() {}
