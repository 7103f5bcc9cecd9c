package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecordsExports(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveExport("done", 3, 2*time.Second)
	c.ObserveExport("errored", 0, time.Second)
	c.ArchiveFailed(12)
	c.ObserveNotification(true)
	c.ObserveNotification(false)
	c.ObserveDownload("served")
	c.FilesSwept(2)
	c.FilesSwept(0)

	if got := testutil.ToFloat64(c.exportsTotal.WithLabelValues("done")); got != 1 {
		t.Fatalf("expected 1 done export, got %v", got)
	}
	if got := testutil.ToFloat64(c.exportRows); got != 3 {
		t.Fatalf("expected 3 rows, got %v", got)
	}
	if got := testutil.ToFloat64(c.archiveFailures.WithLabelValues("12")); got != 1 {
		t.Fatalf("expected archive failure, got %v", got)
	}
	if got := testutil.ToFloat64(c.notificationsTotal.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected failed notification, got %v", got)
	}
	if got := testutil.ToFloat64(c.sweptFiles); got != 2 {
		t.Fatalf("expected 2 swept files, got %v", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveExport("done", 1, time.Second)
	c.ArchiveFailed(1)
	c.ObserveNotification(true)
	c.ObserveDownload("served")
	c.FilesSwept(1)
	if c.Registry() != nil {
		t.Fatalf("expected nil registry")
	}
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector(nil)
	c.ObserveDownload("not_found")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `formexport_downloads_total{result="not_found"} 1`) {
		t.Fatalf("metrics output missing download counter:\n%s", body)
	}
}
