// Package metrics counts migration outcomes for Prometheus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "evernote_drive"

// Metrics holds the collectors of a single run on a private registry
type Metrics struct {
	registry *prometheus.Registry

	notesUploaded  prometheus.Counter
	notesFailed    *prometheus.CounterVec
	filesFailed    prometheus.Counter
	remoteRetries  *prometheus.CounterVec
	uploadDuration prometheus.Histogram
	lastRun        prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		notesUploaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notes_uploaded_total",
				Help:      "Total number of notes created as documents",
			},
		),
		notesFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notes_failed_total",
				Help:      "Total number of notes that could not be migrated",
			},
			[]string{"reason"},
		),
		filesFailed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_failed_total",
				Help:      "Total number of export files that failed as a whole",
			},
		),
		remoteRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_retries_total",
				Help:      "Total number of retried Drive calls",
			},
			[]string{"op"},
		),
		uploadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "note_upload_duration_seconds",
				Help:      "Duration of note uploads including retries",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last migration finished",
			},
		),
	}

	m.registry.MustRegister(
		m.notesUploaded,
		m.notesFailed,
		m.filesFailed,
		m.remoteRetries,
		m.uploadDuration,
		m.lastRun,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the private registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) NoteUploaded(d time.Duration) {
	m.notesUploaded.Inc()
	m.uploadDuration.Observe(d.Seconds())
}

func (m *Metrics) NoteFailed(reason string) {
	m.notesFailed.WithLabelValues(reason).Inc()
}

func (m *Metrics) FileFailed() {
	m.filesFailed.Inc()
}

func (m *Metrics) Retried(op string) {
	m.remoteRetries.WithLabelValues(op).Inc()
}

// WriteTextfile marks the run finished and writes every metric in the
// node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	m.lastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
