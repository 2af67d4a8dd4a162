// Package metrics provides Prometheus metrics collection for cmsdesk.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for cmsdesk.
// A nil *Collector is valid; every Observe/Record method is then a no-op.
type Collector struct {
	// CMS API metrics
	RemoteRequests *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
	RemoteErrors   *prometheus.CounterVec

	// Editor metrics
	SessionsOpen  prometheus.Gauge
	EditsApplied  *prometheus.CounterVec
	DiffsComputed *prometheus.CounterVec
	Saves         *prometheus.CounterVec

	// Local HTTP API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RemoteRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cmsdesk",
				Name:      "remote_requests_total",
				Help:      "Total number of CMS API requests",
			},
			[]string{"method", "path", "status"},
		),
		RemoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cmsdesk",
				Name:      "remote_request_duration_seconds",
				Help:      "CMS API request duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		RemoteErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cmsdesk",
				Name:      "remote_errors_total",
				Help:      "Total number of failed CMS API requests",
			},
			[]string{"type"},
		),
		SessionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cmsdesk",
				Name:      "sessions_open",
				Help:      "Number of open editing sessions",
			},
		),
		EditsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cmsdesk",
				Name:      "edits_applied_total",
				Help:      "Total number of path edits applied to sessions",
			},
			[]string{"op"},
		),
		DiffsComputed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cmsdesk",
				Name:      "diffs_computed_total",
				Help:      "Total number of structural diffs computed",
			},
			[]string{"source"},
		),
		Saves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cmsdesk",
				Name:      "saves_total",
				Help:      "Total number of entry saves by result",
			},
			[]string{"result"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cmsdesk",
				Name:      "http_requests_total",
				Help:      "Total number of local API requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cmsdesk",
				Name:      "http_request_duration_seconds",
				Help:      "Local API request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cmsdesk",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cmsdesk",
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cmsdesk",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// ObserveRemote records one CMS API request. status is 0 when the request
// never produced a response.
func (c *Collector) ObserveRemote(method, path string, status int, d time.Duration) {
	if c == nil {
		return
	}
	p := NormalizePath(path)
	c.RemoteRequests.WithLabelValues(method, p, StatusClass(status)).Inc()
	c.RemoteDuration.WithLabelValues(method, p).Observe(d.Seconds())
	switch {
	case status == 0:
		c.RemoteErrors.WithLabelValues("transport").Inc()
	case status >= 500:
		c.RemoteErrors.WithLabelValues("server").Inc()
	case status >= 400:
		c.RemoteErrors.WithLabelValues("client").Inc()
	}
}

// ObserveHTTP records one local API request.
func (c *Collector) ObserveHTTP(method, path string, status int, d time.Duration) {
	if c == nil {
		return
	}
	p := NormalizePath(path)
	c.HTTPRequests.WithLabelValues(method, p, StatusClass(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, p).Observe(d.Seconds())
}

// RecordEdit counts an applied edit ("set", "append", "delete", "undo", "redo").
func (c *Collector) RecordEdit(op string) {
	if c == nil {
		return
	}
	c.EditsApplied.WithLabelValues(op).Inc()
}

// RecordDiff counts a computed diff ("pending", "entries", "snapshot", "import").
func (c *Collector) RecordDiff(source string) {
	if c == nil {
		return
	}
	c.DiffsComputed.WithLabelValues(source).Inc()
}

// RecordSave counts a save attempt.
func (c *Collector) RecordSave(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Saves.WithLabelValues(result).Inc()
}

// SessionOpened and SessionClosed track the open sessions gauge.
func (c *Collector) SessionOpened() {
	if c != nil {
		c.SessionsOpen.Inc()
	}
}

func (c *Collector) SessionClosed() {
	if c != nil {
		c.SessionsOpen.Dec()
	}
}

// RecordReload counts a config reload attempt.
func (c *Collector) RecordReload(err error, at time.Time) {
	if c == nil {
		return
	}
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.Set(float64(at.Unix()))
}

// StatusClass maps a status code to "2xx", "4xx", etc. Zero maps to "error".
func StatusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

// idCollections are the path segments whose following segment is an ID.
var idCollections = map[string]bool{
	"models":    true,
	"entries":   true,
	"sessions":  true,
	"snapshots": true,
}

// NormalizePath reduces cardinality by replacing IDs with ":id" and
// dropping the query string.
// e.g., /models/mdl_1/entries?limit=10 -> /models/:id/entries
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(path, "/")
	for i := 1; i < len(segs); i++ {
		if idCollections[segs[i-1]] && segs[i] != "" {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}
