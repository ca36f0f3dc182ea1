// Package metrics exposes pruning outcomes as Prometheus metrics, either
// scraped from the daemon or written to a node exporter textfile.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raoulx24/tarsnap-pruner/internal/report"
)

const namespace = "tarsnap_pruner"

// Collector owns a private registry with the pruning metrics.
type Collector struct {
	registry *prometheus.Registry

	archives     *prometheus.GaugeVec
	kept         *prometheus.GaugeVec
	deletions    *prometheus.CounterVec
	runs         *prometheus.CounterVec
	lastRun      *prometheus.GaugeVec
	lastDuration *prometheus.GaugeVec
}

// NewCollector registers the metrics on registry, or on a fresh one if nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		archives: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archives",
			Help:      "Archives seen in the last run, by retention tier.",
		}, []string{"hostname", "key_file", "tier"}),
		kept: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archives_kept",
			Help:      "Archives retained by the last run.",
		}, []string{"hostname", "key_file"}),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "Archive deletions attempted, by outcome.",
		}, []string{"hostname", "key_file", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Machine runs, by status.",
		}, []string{"hostname", "key_file", "status"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Start of the last run.",
		}, []string{"hostname", "key_file"}),
		lastDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last run.",
		}, []string{"hostname", "key_file"}),
	}

	registry.MustRegister(c.archives, c.kept, c.deletions, c.runs, c.lastRun, c.lastDuration)
	return c
}

// Record folds one machine report into the metrics. Series carry the key file
// as well as the hostname, which is not unique across key files. Dry runs only update the
// tier gauges.
func (c *Collector) Record(_ context.Context, r report.Report) error {
	c.archives.WithLabelValues(r.Hostname, r.KeyFile, "daily").Set(float64(r.Daily))
	c.archives.WithLabelValues(r.Hostname, r.KeyFile, "weekly").Set(float64(r.Weekly))
	c.archives.WithLabelValues(r.Hostname, r.KeyFile, "monthly").Set(float64(r.Monthly))
	c.archives.WithLabelValues(r.Hostname, r.KeyFile, "unknown").Set(float64(r.Unknown))
	c.kept.WithLabelValues(r.Hostname, r.KeyFile).Set(float64(r.Kept))

	if r.DryRun {
		return nil
	}

	c.deletions.WithLabelValues(r.Hostname, r.KeyFile, "deleted").Add(float64(len(r.Pruned)))
	c.deletions.WithLabelValues(r.Hostname, r.KeyFile, "failed").Add(float64(len(r.Failed)))
	c.runs.WithLabelValues(r.Hostname, r.KeyFile, r.Status()).Inc()
	c.lastRun.WithLabelValues(r.Hostname, r.KeyFile).Set(float64(r.Started.Unix()))
	c.lastDuration.WithLabelValues(r.Hostname, r.KeyFile).Set(r.Duration.Seconds())
	return nil
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// WriteTextfile writes the metrics for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
