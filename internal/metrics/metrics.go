// Package metrics provides Prometheus metrics for the Esperanto viewer
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the viewer
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Dataset metrics
	DatasetRecords      prometheus.Gauge
	DatasetLoadsTotal   *prometheus.CounterVec
	DatasetLoadDuration prometheus.Histogram

	// View metrics
	SearchQueriesTotal prometheus.Counter
	SearchResultsTotal prometheus.Counter
	ExportsTotal       prometheus.Counter
	ExportedRecords    prometheus.Counter

	// Server metrics
	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esperanto_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esperanto_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	m.HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "esperanto_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	m.DatasetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "esperanto_dataset_records",
			Help: "Number of conversations in the canonical set",
		},
	)

	m.DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esperanto_dataset_loads_total",
			Help: "Total number of dataset load attempts",
		},
		[]string{"status"},
	)

	m.DatasetLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "esperanto_dataset_load_duration_seconds",
			Help:    "Duration of dataset loads in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.SearchQueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "esperanto_search_queries_total",
			Help: "Total number of search queries",
		},
	)

	m.SearchResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "esperanto_search_results_total",
			Help: "Total number of search results returned",
		},
	)

	m.ExportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "esperanto_exports_total",
			Help: "Total number of CSV exports",
		},
	)

	m.ExportedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "esperanto_exported_records_total",
			Help: "Total number of records written to exports",
		},
	)

	m.ServerUptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "esperanto_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	return m
}

// RecordHTTPRequest records one completed HTTP request
func (m *Metrics) RecordHTTPRequest(path, method, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(path, method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordDatasetLoad records one load attempt and the resulting set size
func (m *Metrics) RecordDatasetLoad(records int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.DatasetLoadsTotal.WithLabelValues(status).Inc()
	m.DatasetLoadDuration.Observe(duration.Seconds())
	m.DatasetRecords.Set(float64(records))
}

// RecordSearch records one search query and its hit count
func (m *Metrics) RecordSearch(results int) {
	m.SearchQueriesTotal.Inc()
	m.SearchResultsTotal.Add(float64(results))
}

// RecordExport records one export and its row count
func (m *Metrics) RecordExport(records int) {
	m.ExportsTotal.Inc()
	m.ExportedRecords.Add(float64(records))
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
}

// StartUptimeUpdater starts a goroutine refreshing uptime every interval
func (m *Metrics) StartUptimeUpdater(interval time.Duration) chan struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.UpdateUptime()
			case <-stop:
				return
			}
		}
	}()
	return stop
}
