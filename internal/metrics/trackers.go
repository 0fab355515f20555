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
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
	"github.com/tuulbelt/cli-progress-reporting/internal/state"
)

// TrackerCollector reports the on-disk state of every tracker in a store's
// base directory at scrape time. Files that cannot be read are skipped and
// counted in prog_tracker_read_errors.
type TrackerCollector struct {
	store  *state.Store
	logger *zap.Logger

	current    *prometheus.Desc
	total      *prometheus.Desc
	percentage *prometheus.Desc
	complete   *prometheus.Desc
	readErrors *prometheus.Desc
}

// NewTrackerCollector returns a collector over store. Register it with a
// prometheus.Registry to export it.
func NewTrackerCollector(store *state.Store, logger *zap.Logger) *TrackerCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	labels := []string{"id"}
	return &TrackerCollector{
		store:      store,
		logger:     logger,
		current:    prometheus.NewDesc("prog_tracker_current", "Completed units of work per tracker.", labels, nil),
		total:      prometheus.NewDesc("prog_tracker_total", "Total units of work per tracker.", labels, nil),
		percentage: prometheus.NewDesc("prog_tracker_percentage", "Rounded completion percentage per tracker.", labels, nil),
		complete:   prometheus.NewDesc("prog_tracker_complete", "1 when the tracker is complete.", labels, nil),
		readErrors: prometheus.NewDesc("prog_tracker_read_errors", "Tracker files that could not be read during the last scrape.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *TrackerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.current
	ch <- c.total
	ch <- c.percentage
	ch <- c.complete
	ch <- c.readErrors
}

// Collect implements prometheus.Collector.
func (c *TrackerCollector) Collect(ch chan<- prometheus.Metric) {
	var failures float64
	defer func() {
		ch <- prometheus.MustNewConstMetric(c.readErrors, prometheus.GaugeValue, failures)
	}()

	ids, err := c.store.ListTrackers()
	if err != nil {
		c.logger.Warn("list trackers for metrics", zap.Error(err))
		failures++
		return
	}
	for _, id := range ids {
		p, err := c.store.ReadProgress(c.store.ProgressPath(id))
		if err != nil {
			// Trackers cleared mid-scrape are not failures.
			if !errors.Is(err, progerrors.ErrNotFound) {
				c.logger.Warn("read tracker for metrics", zap.String("tracker", id), zap.Error(err))
				failures++
			}
			continue
		}
		var done float64
		if p.Complete {
			done = 1
		}
		ch <- prometheus.MustNewConstMetric(c.current, prometheus.GaugeValue, float64(p.Current), id)
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(p.Total), id)
		ch <- prometheus.MustNewConstMetric(c.percentage, prometheus.GaugeValue, float64(p.Percentage), id)
		ch <- prometheus.MustNewConstMetric(c.complete, prometheus.GaugeValue, done, id)
	}
}
