// Package metrics provides Prometheus metrics for the pane watchers and file operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Watcher metrics
	watchersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "twinpane_watchers_active",
			Help: "Number of running directory watchers",
		},
	)

	scansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "twinpane_scans_total",
			Help: "Total number of directory fingerprint passes",
		},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "twinpane_scan_duration_seconds",
			Help:    "Time to fingerprint a directory",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)

	unchangedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "twinpane_scans_unchanged_total",
			Help: "Scans whose fingerprint matched the previous one",
		},
	)

	snapshotsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "twinpane_snapshots_published_total",
			Help: "Total number of snapshots built and published",
		},
	)

	openErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "twinpane_open_errors_total",
			Help: "Directory open failures seen by watchers",
		},
	)

	// Pane metrics
	navigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twinpane_navigations_total",
			Help: "Navigation requests by outcome",
		},
		[]string{"status"},
	)

	// File operation metrics
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twinpane_operations_total",
			Help: "File operations by kind and outcome",
		},
		[]string{"op", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// WatcherStarted increments the active watcher gauge.
func WatcherStarted() { watchersActive.Inc() }

// WatcherStopped decrements the active watcher gauge.
func WatcherStopped() { watchersActive.Dec() }

// RecordScan records one fingerprint pass.
func RecordScan(duration time.Duration, changed bool) {
	scansTotal.Inc()
	scanDuration.Observe(duration.Seconds())
	if !changed {
		unchangedTotal.Inc()
	}
}

// RecordPublish records a published snapshot.
func RecordPublish() { snapshotsPublished.Inc() }

// RecordOpenError records a directory that could not be opened.
func RecordOpenError() { openErrorsTotal.Inc() }

// RecordNavigation records a navigation attempt.
func RecordNavigation(success bool) {
	navigationsTotal.WithLabelValues(status(success)).Inc()
}

// RecordOperation records a file operation result.
func RecordOperation(op string, success bool) {
	operationsTotal.WithLabelValues(op, status(success)).Inc()
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
