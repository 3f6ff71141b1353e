/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package metrics defines the Prometheus metrics of instrument data fetches.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome is how a data fetch concluded.
type Outcome string

// Fetch outcomes.
const (
	// Loaded fetches returned data which was rendered.
	Loaded Outcome = "loaded"
	// Empty fetches returned no data.
	Empty Outcome = "empty"
	// Failed fetches could not retrieve, decode, or render their data.
	Failed Outcome = "failed"
	// Stale fetches completed after a newer fetch was issued, and were
	// discarded.
	Stale Outcome = "stale"
)

// Fetch holds the metrics of data fetches.
type Fetch struct {
	// Total counts completed fetches by outcome.
	Total *prometheus.CounterVec
	// DurationSeconds observes fetch latency, from issue to completion, by
	// outcome.
	DurationSeconds *prometheus.HistogramVec
}

// NewFetch returns a new, unregistered set of fetch metrics.
func NewFetch() *Fetch {
	return &Fetch{
		Total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instrumentviz_fetch_total",
				Help: "Total number of instrument data fetches, by outcome",
			},
			[]string{"outcome"},
		),
		DurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "instrumentviz_fetch_duration_seconds",
				Help:    "Instrument data fetch latency in seconds, by outcome",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"outcome"},
		),
	}
}

// Register registers the receiver's metrics to reg.
func (f *Fetch) Register(reg prometheus.Registerer) {
	reg.MustRegister(f.Total, f.DurationSeconds)
}

// Observe records one fetch with the specified outcome and latency.
func (f *Fetch) Observe(outcome Outcome, latency time.Duration) {
	f.Total.WithLabelValues(string(outcome)).Inc()
	f.DurationSeconds.WithLabelValues(string(outcome)).Observe(latency.Seconds())
}
