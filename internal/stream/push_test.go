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
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuulbelt/cli-progress-reporting/internal/state"
	"github.com/tuulbelt/cli-progress-reporting/internal/tracker"
)

type recorder struct {
	notes []state.Progress
}

func (r *recorder) listen(p state.Progress) {
	r.notes = append(r.notes, p)
}

func (r *recorder) currents() []int {
	out := make([]int, len(r.notes))
	for i, p := range r.notes {
		out[i] = p.Current
	}
	return out
}

func TestObserverThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold int64
		chunks    []int
		want      []int
	}{
		{"zero notifies every chunk", 0, []int{1, 2, 3}, []int{1, 3, 6}},
		{"exceeding threshold", 4, []int{3, 3, 3, 3}, []int{6, 12}},
		{"equal is not exceeding", 3, []int{3, 1, 3}, []int{4}},
		{"large chunk", 10, []int{50}, []int{50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := initTracker(t, 1000, tracker.Config{})
			rec := &recorder{}
			obs := NewObserver(tr, WithThreshold(tt.threshold), WithListener(rec.listen))

			for _, n := range tt.chunks {
				_, err := obs.Observe(make([]byte, n))
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, rec.currents())

			p, err := tr.Get()
			require.NoError(t, err)
			assert.EqualValues(t, obs.Bytes(), p.Current)
		})
	}
}

func TestObserverEndNotifiesUnconditionally(t *testing.T) {
	tr := initTracker(t, 100, tracker.Config{})
	rec := &recorder{}
	obs := NewObserver(tr, WithThreshold(1<<20), WithListener(rec.listen))

	_, err := obs.Observe([]byte("12345"))
	require.NoError(t, err)
	assert.Empty(t, rec.notes)

	p, err := obs.End()
	require.NoError(t, err)
	assert.True(t, p.Complete)
	require.Len(t, rec.notes, 1)
	assert.Equal(t, 100, rec.notes[0].Percentage)

	again, err := obs.End()
	require.NoError(t, err)
	assert.Equal(t, p, again)
	assert.Len(t, rec.notes, 1)

	_, err = obs.Observe([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestObserverAbortKeepsLastState(t *testing.T) {
	tr := initTracker(t, 100, tracker.Config{})
	rec := &recorder{}
	obs := NewObserver(tr, WithListener(rec.listen))

	_, err := obs.Observe(make([]byte, 30))
	require.NoError(t, err)

	cause := errors.New("connection reset")
	assert.Same(t, cause, obs.Abort(cause))

	p, err := tr.Get()
	require.NoError(t, err)
	assert.Equal(t, 30, p.Current)
	assert.False(t, p.Complete)

	_, err = obs.End()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Len(t, rec.notes, 1)
}

func TestReaderIsTransparent(t *testing.T) {
	payload := strings.Repeat("progress-data-", 1000)
	tr := initTracker(t, len(payload), tracker.Config{})
	rec := &recorder{}
	r := NewReader(iotest.HalfReader(strings.NewReader(payload)), tr, WithThreshold(4096), WithListener(rec.listen))

	var out bytes.Buffer
	n, err := io.Copy(&out, r)
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), n)
	assert.Equal(t, payload, out.String())

	p, err := tr.Get()
	require.NoError(t, err)
	assert.True(t, p.Complete)
	assert.Equal(t, len(payload), p.Current)

	require.NotEmpty(t, rec.notes)
	assert.True(t, rec.notes[len(rec.notes)-1].Complete)
	assert.EqualValues(t, len(payload), r.Observer().Bytes())
}

func TestReaderErrorAborts(t *testing.T) {
	tr := initTracker(t, 100, tracker.Config{})
	boom := errors.New("boom")
	src := io.MultiReader(strings.NewReader("0123456789"), iotest.ErrReader(boom))
	r := NewReader(src, tr)

	data, err := io.ReadAll(r)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "0123456789", string(data))

	p, err := tr.Get()
	require.NoError(t, err)
	assert.Equal(t, 10, p.Current)
	assert.False(t, p.Complete)
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestWriterIsTransparent(t *testing.T) {
	tr := initTracker(t, 11, tracker.Config{})
	dst := &closeRecorder{}
	w := NewWriter(dst, tr)

	_, err := io.WriteString(w, "hello ")
	require.NoError(t, err)
	p, err := tr.Get()
	require.NoError(t, err)
	assert.Equal(t, 6, p.Current)

	_, err = io.WriteString(w, "world")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "hello world", dst.String())
	assert.True(t, dst.closed)

	p, err = tr.Get()
	require.NoError(t, err)
	assert.True(t, p.Complete)
}

type failingWriter struct {
	accept int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	n := min(len(p), f.accept)
	return n, errors.New("short write")
}

func TestWriterErrorAborts(t *testing.T) {
	tr := initTracker(t, 100, tracker.Config{})
	w := NewWriter(&failingWriter{accept: 4}, tr)

	n, err := w.Write([]byte("abcdefgh"))
	assert.Equal(t, 4, n)
	assert.EqualError(t, err, "short write")

	require.NoError(t, w.Close())
	p, err := tr.Get()
	require.NoError(t, err)
	assert.Equal(t, 4, p.Current)
	assert.False(t, p.Complete)
}

// flakyWriter fails exactly one write and accepts everything else.
type flakyWriter struct {
	bytes.Buffer
	calls  int
	failOn int
}

func (f *flakyWriter) Write(p []byte) (int, error) {
	f.calls++
	if f.calls == f.failOn {
		return 0, errors.New("transient")
	}
	return f.Buffer.Write(p)
}

func TestWriterStopsForwardingAfterError(t *testing.T) {
	tr := initTracker(t, 100, tracker.Config{})
	dst := &flakyWriter{failOn: 2}
	w := NewWriter(dst, tr)

	_, err := io.WriteString(w, "abc")
	require.NoError(t, err)
	_, err = io.WriteString(w, "def")
	assert.EqualError(t, err, "transient")

	n, err := io.WriteString(w, "ghi")
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, "abc", dst.String())
	assert.Equal(t, 2, dst.calls)

	p, err := tr.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, p.Current)
}

func TestWriterRejectsWritesAfterClose(t *testing.T) {
	tr := initTracker(t, 3, tracker.Config{})
	dst := &bytes.Buffer{}
	w := NewWriter(dst, tr)

	_, err := io.WriteString(w, "abc")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	n, err := io.WriteString(w, "late")
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, "abc", dst.String())
}
