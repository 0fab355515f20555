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

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/tuulbelt/cli-progress-reporting/internal/state"
)

// Writer writes records as NDJSON. It is safe for concurrent use.
type Writer struct {
	mu      sync.Mutex
	output  io.Writer
	encoder *json.Encoder
	count   int
}

// NewWriter creates a new NDJSON writer that writes to the specified output.
func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{
		output:  w,
		encoder: enc,
	}
}

// Write writes a single record as one JSON line.
func (w *Writer) Write(record any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Progress implements Printer.
func (w *Writer) Progress(id string, p state.Progress) error {
	return w.Write(ProgressRecord{ID: id, Progress: p})
}

// Group implements Printer.
func (w *Writer) Group(id string, g state.Group) error {
	if g.Trackers == nil {
		g.Trackers = map[string]state.Progress{}
	}
	return w.Write(GroupRecord{ID: id, Group: g})
}

// IDs implements Printer.
func (w *Writer) IDs(kind string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return w.Write(ListRecord{Kind: kind, IDs: ids})
}

// Done implements Printer.
func (w *Writer) Done(action, id string) error {
	return w.Write(ActionRecord{Action: action, ID: id, OK: true})
}
