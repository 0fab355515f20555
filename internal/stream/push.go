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
	"io"

	"github.com/tuulbelt/cli-progress-reporting/internal/state"
	"github.com/tuulbelt/cli-progress-reporting/internal/tracker"
)

// ErrClosed is returned by Observe after End or Abort.
var ErrClosed = errors.New("stream: observer closed")

// Listener is notified with the tracker state after a throttled update and
// once more when the stream ends.
type Listener func(state.Progress)

// Observer records a byte stream's progress on a tracker. Each chunk adds to
// a running byte count that is written with Set. Listeners are notified when
// the bytes seen since the previous notification exceed the threshold; a zero
// threshold notifies on every chunk. An Observer is not safe for concurrent
// use.
type Observer struct {
	tr        *tracker.Tracker
	threshold int64
	listeners []Listener

	bytes    int64
	pending  int64
	last     state.Progress
	closed   bool
	finished bool
}

// ObserverOption configures an Observer.
type ObserverOption func(*Observer)

// WithThreshold sets the number of bytes that must accumulate between
// notifications. Negative values are treated as zero.
func WithThreshold(bytes int64) ObserverOption {
	return func(o *Observer) {
		o.threshold = max(bytes, 0)
	}
}

// WithListener registers fn for progress notifications.
func WithListener(fn Listener) ObserverOption {
	return func(o *Observer) {
		if fn != nil {
			o.listeners = append(o.listeners, fn)
		}
	}
}

// NewObserver wraps an initialized tracker whose total is the expected
// stream size in bytes.
func NewObserver(tr *tracker.Tracker, opts ...ObserverOption) *Observer {
	o := &Observer{tr: tr}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Bytes returns the number of bytes observed so far.
func (o *Observer) Bytes() int64 {
	return o.bytes
}

// Observe records chunk. The chunk itself is not retained or modified.
func (o *Observer) Observe(chunk []byte) (state.Progress, error) {
	if o.closed {
		return o.last, ErrClosed
	}
	o.bytes += int64(len(chunk))
	o.pending += int64(len(chunk))

	p, err := o.tr.Set(clampInt(o.bytes))
	if err != nil {
		return o.last, err
	}
	o.last = p

	if o.threshold == 0 || o.pending > o.threshold {
		o.pending = 0
		o.notify(p)
	}
	return p, nil
}

// End finishes the tracker and notifies listeners regardless of throttling.
// Calling End again returns the final state.
func (o *Observer) End() (state.Progress, error) {
	if o.finished {
		return o.last, nil
	}
	if o.closed {
		return o.last, ErrClosed
	}
	o.closed = true

	p, err := o.tr.Finish()
	if err != nil {
		return o.last, err
	}
	o.last = p
	o.finished = true
	o.notify(p)
	return p, nil
}

// Abort stops observing without finishing the tracker, which keeps its last
// recorded state. It returns err.
func (o *Observer) Abort(err error) error {
	o.closed = true
	return err
}

func (o *Observer) notify(p state.Progress) {
	for _, fn := range o.listeners {
		fn(p)
	}
}

func clampInt(n int64) int {
	const maxInt = int64(^uint(0) >> 1)
	if n > maxInt {
		return int(maxInt)
	}
	return int(n)
}

// Reader passes reads through unchanged while observing them.
type Reader struct {
	r   io.Reader
	obs *Observer
}

// NewReader returns a Reader that records every chunk read from r on tr.
// Reaching io.EOF ends the observer; any other read error aborts it.
func NewReader(r io.Reader, tr *tracker.Tracker, opts ...ObserverOption) *Reader {
	return &Reader{r: r, obs: NewObserver(tr, opts...)}
}

// Observer returns the underlying Observer.
func (r *Reader) Observer() *Observer {
	return r.obs
}

// Read implements io.Reader. A tracker update failure is returned with the
// bytes that were read.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		if _, obsErr := r.obs.Observe(p[:n]); obsErr != nil && !errors.Is(obsErr, ErrClosed) {
			return n, obsErr
		}
	}
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF):
		if _, endErr := r.obs.End(); endErr != nil && !errors.Is(endErr, ErrClosed) {
			return n, endErr
		}
		return n, err
	default:
		return n, r.obs.Abort(err)
	}
}

// Writer passes writes through unchanged while observing them.
type Writer struct {
	w   io.Writer
	obs *Observer
}

// NewWriter returns a Writer that records every chunk written to w on tr.
// Close ends the observer; a write error aborts it.
func NewWriter(w io.Writer, tr *tracker.Tracker, opts ...ObserverOption) *Writer {
	return &Writer{w: w, obs: NewObserver(tr, opts...)}
}

// Observer returns the underlying Observer.
func (w *Writer) Observer() *Observer {
	return w.obs
}

// Write implements io.Writer. Only the bytes accepted by the underlying
// writer are recorded. Once a write has failed or Close has been called,
// Write forwards nothing and returns ErrClosed.
func (w *Writer) Write(p []byte) (int, error) {
	if w.obs.closed {
		return 0, ErrClosed
	}
	n, err := w.w.Write(p)
	if n > 0 {
		if _, obsErr := w.obs.Observe(p[:n]); obsErr != nil && err == nil {
			return n, obsErr
		}
	}
	if err != nil {
		return n, w.obs.Abort(err)
	}
	return n, nil
}

// Close finishes the tracker and closes the underlying writer when it
// implements io.Closer. After an aborted write the tracker is left as is.
func (w *Writer) Close() error {
	_, endErr := w.obs.End()
	if errors.Is(endErr, ErrClosed) {
		endErr = nil
	}
	var closeErr error
	if c, ok := w.w.(io.Closer); ok {
		closeErr = c.Close()
	}
	return errors.Join(endErr, closeErr)
}
