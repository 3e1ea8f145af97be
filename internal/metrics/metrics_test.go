package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordScan(t *testing.T) {
	scans := testutil.ToFloat64(scansTotal)
	unchanged := testutil.ToFloat64(unchangedTotal)

	RecordScan(time.Millisecond, true)
	RecordScan(time.Millisecond, false)

	if got := testutil.ToFloat64(scansTotal) - scans; got != 2 {
		t.Errorf("expected 2 scans, got %v", got)
	}
	if got := testutil.ToFloat64(unchangedTotal) - unchanged; got != 1 {
		t.Errorf("expected 1 unchanged scan, got %v", got)
	}
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(operationsTotal.WithLabelValues("copy", "error"))
	RecordOperation("copy", false)
	if got := testutil.ToFloat64(operationsTotal.WithLabelValues("copy", "error")) - before; got != 1 {
		t.Errorf("expected 1 failed copy, got %v", got)
	}
}

func TestWatcherGauge(t *testing.T) {
	before := testutil.ToFloat64(watchersActive)
	WatcherStarted()
	WatcherStarted()
	WatcherStopped()
	if got := testutil.ToFloat64(watchersActive) - before; got != 1 {
		t.Errorf("expected gauge to move by 1, got %v", got)
	}
	WatcherStopped()
}

func TestHandler(t *testing.T) {
	RecordPublish()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "twinpane_snapshots_published_total") {
		t.Error("metrics output missing snapshot counter")
	}
}
