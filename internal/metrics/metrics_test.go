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

package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuulbelt/cli-progress-reporting/internal/state"
)

func TestStoreMetricsObserveOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewStoreMetrics(reg)
	require.NoError(t, err)

	store := state.NewStore(state.Config{Dir: t.TempDir(), Observer: m})
	path := store.ProgressPath("job")
	p := state.Progress{Total: 2, Current: 1, Percentage: 50, StartTime: 1, UpdatedTime: 1}

	require.NoError(t, store.WriteProgress(path, p))
	_, err = store.ReadProgress(path)
	require.NoError(t, err)
	require.NoError(t, store.Remove(path))
	_, err = store.ReadProgress(path)
	require.Error(t, err)
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = store.ReadProgress(path)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("write", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("read", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("read", "decode_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("read", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("remove", "ok")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))
}

func TestStoreMetricsIOErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewStoreMetrics(reg)
	require.NoError(t, err)

	store := state.NewStore(state.Config{Dir: filepath.Join(t.TempDir(), "missing"), Observer: m})
	require.Error(t, store.WriteProgress(store.ProgressPath("x"), state.Progress{Total: 1}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("write", "io_error")))
}

func TestNewStoreMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewStoreMetrics(reg)
	require.NoError(t, err)

	_, err = NewStoreMetrics(reg)
	assert.Error(t, err)
}

func TestTrackerCollector(t *testing.T) {
	dir := t.TempDir()
	store := state.NewStore(state.Config{Dir: dir})
	require.NoError(t, store.WriteProgress(store.ProgressPath("alpha"),
		state.Progress{Total: 4, Current: 1, Percentage: 25, StartTime: 1, UpdatedTime: 2}))
	require.NoError(t, store.WriteProgress(store.ProgressPath("beta"),
		state.Progress{Total: 2, Current: 2, Percentage: 100, StartTime: 1, UpdatedTime: 3, Complete: true}))
	require.NoError(t, os.WriteFile(store.ProgressPath("broken"), []byte("nope"), 0o644))

	collector := NewTrackerCollector(store, nil)

	expected := `
# HELP prog_tracker_current Completed units of work per tracker.
# TYPE prog_tracker_current gauge
prog_tracker_current{id="alpha"} 1
prog_tracker_current{id="beta"} 2
# HELP prog_tracker_complete 1 when the tracker is complete.
# TYPE prog_tracker_complete gauge
prog_tracker_complete{id="alpha"} 0
prog_tracker_complete{id="beta"} 1
# HELP prog_tracker_read_errors Tracker files that could not be read during the last scrape.
# TYPE prog_tracker_read_errors gauge
prog_tracker_read_errors 1
`
	err := testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"prog_tracker_current", "prog_tracker_complete", "prog_tracker_read_errors")
	assert.NoError(t, err)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewStoreMetrics(reg)
	require.NoError(t, err)
	m.ObserveOperation(state.OpWrite, 0, nil)

	path := filepath.Join(t.TempDir(), "prog.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `prog_store_operations_total{op="write",result="ok"} 1`)
}
