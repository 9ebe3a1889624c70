// Package metrics exposes history activity as Prometheus metrics.
//
// Metrics:
//   - stash_captures_total{kind}      entries stored from the clipboard
//   - stash_rejected_total{reason}    clipboard changes not stored
//   - stash_removed_total{reason}     entries dropped (duplicate, count, size, deleted, cleared)
//   - stash_recalls_total{paste}      entries put back on the clipboard
//   - stash_entries                   entries currently held
//   - stash_bytes                     total size of held entries
//   - stash_watchers                  clients streaming history events
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.klb.dev/stash/internal/history"
)

const namespace = "stash"

// Collector records history events. It implements history.Observer.
type Collector struct {
	reg *prometheus.Registry

	captures *prometheus.CounterVec
	rejects  *prometheus.CounterVec
	removals *prometheus.CounterVec
	recalls  *prometheus.CounterVec
	entries  prometheus.Gauge
	bytes    prometheus.Gauge
	watchers prometheus.Gauge
}

// New registers the collector, plus the Go runtime and process collectors,
// on a private registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		reg: reg,

		captures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Clipboard changes stored as history entries.",
		}, []string{"kind"}),
		rejects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_total",
			Help:      "Clipboard changes that were not stored.",
		}, []string{"reason"}),
		removals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removed_total",
			Help:      "History entries removed.",
		}, []string{"reason"}),
		recalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recalls_total",
			Help:      "History entries written back to the clipboard.",
		}, []string{"paste"}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "History entries currently held.",
		}),
		bytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bytes",
			Help:      "Total size of the history entries currently held.",
		}),
		watchers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchers",
			Help:      "Clients currently streaming history events.",
		}),
	}
}

func (c *Collector) Captured(e history.Entry) {
	c.captures.WithLabelValues(e.Content.Kind().String()).Inc()
}

func (c *Collector) Rejected(_ history.Content, reason history.RejectReason) {
	c.rejects.WithLabelValues(reason.String()).Inc()
}

func (c *Collector) Removed(r history.Removal) {
	c.removals.WithLabelValues(r.Reason.String()).Inc()
}

// Recalled counts one recall.
func (c *Collector) Recalled(paste bool) {
	c.recalls.WithLabelValues(strconv.FormatBool(paste)).Inc()
}

// SetSize publishes the current history size.
func (c *Collector) SetSize(entries int, bytes int64) {
	c.entries.Set(float64(entries))
	c.bytes.Set(float64(bytes))
}

// OnWatcherChange implements hub.ChangeListener.
func (c *Collector) OnWatcherChange(total int) { c.watchers.Set(float64(total)) }

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
