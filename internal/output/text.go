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
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/tuulbelt/cli-progress-reporting/internal/state"
)

// TextPrinter writes one human-readable line per snapshot. It is safe for
// concurrent use.
type TextPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTextPrinter returns a TextPrinter writing to w.
func NewTextPrinter(w io.Writer) *TextPrinter {
	return &TextPrinter{out: w}
}

// FormatProgress renders p as "[42%] 42/100 - message".
func FormatProgress(p state.Progress) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d%%] %d/%d", p.Percentage, p.Current, p.Total)
	if p.Message != "" {
		b.WriteString(" - ")
		b.WriteString(p.Message)
	}
	if p.Complete {
		b.WriteString(" (complete)")
	}
	return b.String()
}

// Progress implements Printer.
func (t *TextPrinter) Progress(id string, p state.Progress) error {
	return t.printf("%s: %s\n", id, FormatProgress(p))
}

// Group implements Printer. A summary line is followed by one indented line
// per member in id order.
func (t *TextPrinter) Group(id string, g state.Group) error {
	var b strings.Builder
	complete := 0
	for _, member := range slices.Sorted(maps.Keys(g.Trackers)) {
		p := g.Trackers[member]
		if p.Complete {
			complete++
		}
		fmt.Fprintf(&b, "  %s: %s\n", member, FormatProgress(p))
	}
	summary := fmt.Sprintf("%s: %d/%d trackers complete\n", id, complete, len(g.Trackers))
	return t.printf("%s%s", summary, b.String())
}

// IDs implements Printer.
func (t *TextPrinter) IDs(kind string, ids []string) error {
	if len(ids) == 0 {
		return t.printf("no %s found\n", kind)
	}
	return t.printf("%s\n", strings.Join(ids, "\n"))
}

// Done implements Printer.
func (t *TextPrinter) Done(action, id string) error {
	return t.printf("%s: %s\n", id, action)
}

func (t *TextPrinter) printf(format string, args ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.out, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
