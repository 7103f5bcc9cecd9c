package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formexport"

// Collector owns the service's Prometheus metrics on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	exportsTotal       *prometheus.CounterVec
	exportRows         prometheus.Counter
	exportDuration     prometheus.Histogram
	archiveFailures    *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	downloadsTotal     *prometheus.CounterVec
	sweptFiles         prometheus.Counter
}

// NewCollector registers all metrics on registry, or on a fresh registry when nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	c := &Collector{
		registry: registry,
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export jobs by final state.",
		}, []string{"result"}),
		exportRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_rows_total",
			Help:      "Submission rows written to CSV exports.",
		}),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Wall time of complete export jobs.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 300, 900},
		}),
		archiveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_failures_total",
			Help:      "Archiver runs that exited with a non-zero status.",
		}, []string{"exit_code"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Password notification emails by delivery result.",
		}, []string{"result"}),
		downloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Archive download requests by outcome.",
		}, []string{"result"}),
		sweptFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_files_total",
			Help:      "Expired export files removed by the retention sweep.",
		}),
	}
	registry.MustRegister(
		c.exportsTotal,
		c.exportRows,
		c.exportDuration,
		c.archiveFailures,
		c.notificationsTotal,
		c.downloadsTotal,
		c.sweptFiles,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveExport records a finished export job.
func (c *Collector) ObserveExport(result string, rows int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.exportsTotal.WithLabelValues(result).Inc()
	if rows > 0 {
		c.exportRows.Add(float64(rows))
	}
	c.exportDuration.Observe(elapsed.Seconds())
}

// ArchiveFailed records a failed archiver run.
func (c *Collector) ArchiveFailed(exitCode int) {
	if c == nil {
		return
	}
	c.archiveFailures.WithLabelValues(strconv.Itoa(exitCode)).Inc()
}

// ObserveNotification records one notification attempt.
func (c *Collector) ObserveNotification(delivered bool) {
	if c == nil {
		return
	}
	result := "sent"
	if !delivered {
		result = "failed"
	}
	c.notificationsTotal.WithLabelValues(result).Inc()
}

// ObserveDownload records one download request ("served", "not_found", "rejected").
func (c *Collector) ObserveDownload(result string) {
	if c == nil {
		return
	}
	c.downloadsTotal.WithLabelValues(result).Inc()
}

// FilesSwept records files removed by retention.
func (c *Collector) FilesSwept(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.sweptFiles.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
