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

package stream

import (
	"errors"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/tuulbelt/cli-progress-reporting/internal/state"
	"github.com/tuulbelt/cli-progress-reporting/internal/tracker"
)

type iteratorState int

const (
	created iteratorState = iota
	active
	done
	failed
)

func (s iteratorState) String() string {
	switch s {
	case created:
		return "created"
	case active:
		return "active"
	case done:
		return "done"
	case failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Iterator advances a tracker one step per Next call. It moves from created
// to active on the first Next and ends as done or failed. An Iterator is not
// safe for concurrent use.
type Iterator struct {
	tr    *tracker.Tracker
	step  int
	state iteratorState
	last  state.Progress
	err   error
}

// IteratorOption configures an Iterator.
type IteratorOption func(*Iterator)

// WithStep sets the amount added per Next call. Non-positive values are
// ignored; the default step is 1.
func WithStep(step int) IteratorOption {
	return func(it *Iterator) {
		if step > 0 {
			it.step = step
		}
	}
}

// NewIterator wraps an initialized tracker.
func NewIterator(tr *tracker.Tracker, opts ...IteratorOption) *Iterator {
	it := &Iterator{tr: tr, step: 1}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Next increments the tracker and returns its new state. ok is false once the
// iterator has finished; the returned Progress is then the terminal state.
// The increment that completes the tracker is still reported with ok true.
func (it *Iterator) Next() (p state.Progress, ok bool, err error) {
	if it.terminal() {
		return it.last, false, nil
	}
	it.state = active

	p, err = it.tr.Increment(it.step)
	if err != nil {
		it.state = failed
		it.err = err
		return state.Progress{}, false, err
	}
	it.last = p
	if p.Complete {
		it.state = done
	}
	return p, true, nil
}

// Stop finishes the tracker early. Calling Stop again, or after the iterator
// has ended, returns the same terminal result without touching the tracker.
func (it *Iterator) Stop() (state.Progress, error) {
	if it.terminal() {
		return it.last, it.err
	}
	p, err := it.tr.Finish()
	it.state = done
	if err != nil {
		it.err = err
		return it.last, err
	}
	it.last = p
	return p, nil
}

// Fail records cause in the tracker message, finishes the tracker and returns
// cause. A failure to update the tracker is joined to cause.
func (it *Iterator) Fail(cause error) error {
	if cause == nil {
		cause = errors.New("unknown error")
	}
	if it.terminal() {
		return cause
	}
	it.state = failed

	message := truncate("Failed: "+cause.Error(), it.tr.MaxMessageLength())
	p, err := it.tr.Finish(tracker.WithMessage(message))
	if err != nil {
		it.err = errors.Join(cause, err)
		return it.err
	}
	it.last = p
	it.err = cause
	return cause
}

// State reports the lifecycle state: created, active, done or failed.
func (it *Iterator) State() string {
	return it.state.String()
}

// All yields the state after every step until the tracker completes.
// An update error is yielded once and ends the sequence. Breaking out of the
// loop leaves the tracker at its last written state; call Stop to finish it.
func (it *Iterator) All() iter.Seq2[state.Progress, error] {
	return func(yield func(state.Progress, error) bool) {
		for {
			p, ok, err := it.Next()
			if err != nil {
				yield(state.Progress{}, err)
				return
			}
			if !ok || !yield(p, nil) {
				return
			}
		}
	}
}

func (it *Iterator) terminal() bool {
	return it.state == done || it.state == failed
}

// truncate shortens s to at most n runes of valid UTF-8.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
