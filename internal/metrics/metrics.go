// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus collectors of a status check run.
//
// Collectors live on a dedicated registry rather than the default one: the
// run is short-lived and its metrics are exported as a node-exporter
// textfile, which must not carry go_* or process_* series.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Probe outcomes.
const (
	OutcomeOnline  = "online"
	OutcomeOffline = "offline"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomePanic   = "panic"
	OutcomeInvalid = "invalid"
)

// Registry collects every statuscheck metric.
var Registry = prometheus.NewRegistry()

var (
	factory = promauto.With(Registry)

	probesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "statuscheck_probes_total",
		Help: "Link probes by provider and outcome",
	}, []string{"provider", "outcome"}) // outcome=online|offline|error|timeout|panic|invalid

	probeDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statuscheck_probe_duration_seconds",
		Help:    "Link probe latency by provider",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
	}, []string{"provider"})

	entriesByStatus = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "statuscheck_entries",
		Help: "Entries per status after the last run",
	}, []string{"status"}) // status=online|offline

	batchesTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "statuscheck_batches_total",
		Help: "Batches processed",
	})

	runDuration = factory.NewGauge(prometheus.GaugeOpts{
		Name: "statuscheck_run_duration_seconds",
		Help: "Wall time of the last run",
	})

	lastSuccess = factory.NewGauge(prometheus.GaugeOpts{
		Name: "statuscheck_last_success_timestamp_seconds",
		Help: "Unix time of the last run that wrote the list",
	})
)

// RecordProbe counts one finished probe and observes its latency.
func RecordProbe(provider, outcome string, d time.Duration) {
	probesTotal.WithLabelValues(provider, outcome).Inc()
	probeDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// IncBatch counts one processed batch.
func IncBatch() { batchesTotal.Inc() }

// RecordRun publishes the summary of a finished run.
func RecordRun(online, offline int, d time.Duration) {
	entriesByStatus.WithLabelValues(OutcomeOnline).Set(float64(online))
	entriesByStatus.WithLabelValues(OutcomeOffline).Set(float64(offline))
	runDuration.Set(d.Seconds())
}

// MarkSuccess records that the list was persisted at t.
func MarkSuccess(t time.Time) { lastSuccess.Set(float64(t.Unix())) }

// WriteTextfile writes the registry in text exposition format to path.
// The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
