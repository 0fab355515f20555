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

// Package metrics exposes store activity and tracker state as Prometheus
// collectors. The prog command writes them to a node_exporter textfile when
// a metrics file is configured.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
	"github.com/tuulbelt/cli-progress-reporting/internal/state"
)

// StoreMetrics counts and times store operations. It implements
// state.Observer and is safe for concurrent use.
type StoreMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewStoreMetrics registers the store collectors against reg, or the default
// registerer when reg is nil.
func NewStoreMetrics(reg prometheus.Registerer) (*StoreMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &StoreMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prog_store_operations_total",
			Help: "Store operations partitioned by operation and result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prog_store_operation_duration_seconds",
			Help:    "Store operation latency partitioned by operation.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"op"}),
	}
	for _, collector := range []prometheus.Collector{m.operations, m.duration} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register store collector: %w", err)
		}
	}
	return m, nil
}

// ObserveOperation records one completed store operation.
func (m *StoreMetrics) ObserveOperation(op state.Op, elapsed time.Duration, err error) {
	m.operations.WithLabelValues(string(op), resultLabel(err)).Inc()
	m.duration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, progerrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, progerrors.ErrDecode):
		return "decode_error"
	case errors.Is(err, progerrors.ErrIO):
		return "io_error"
	default:
		return "error"
	}
}

// WriteTextfile gathers g and atomically writes the exposition to path in
// the node_exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return &progerrors.IOError{Op: "write metrics to", Path: path, Err: err}
	}
	return nil
}
