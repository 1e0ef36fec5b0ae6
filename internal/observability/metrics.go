package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dashboard"

// Metrics holds the Prometheus collectors for the dashboard. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	recomputes        *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
	filteredRows      prometheus.Histogram
	loadedRows        prometheus.Gauge
	loadDuration      prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_recomputes_total",
			Help:      "Filter-and-aggregate recomputations by result.",
		}, []string{"result"}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_recompute_duration_seconds",
			Help:      "Time spent computing all derived views for one filter.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		filteredRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_rows",
			Help:      "Rows left after applying a filter.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		loadedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the currently loaded transaction table.",
		}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time spent loading the transaction table.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.recomputes,
		m.recomputeDuration,
		m.filteredRows,
		m.loadedRows,
		m.loadDuration,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

func (m *Metrics) ObserveRecompute(d time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.recomputes.WithLabelValues(result).Inc()
	if err == nil {
		m.recomputeDuration.Observe(d.Seconds())
		m.filteredRows.Observe(float64(rows))
	}
}

func (m *Metrics) ObserveLoad(d time.Duration, rows int) {
	if m == nil {
		return
	}
	m.loadDuration.Observe(d.Seconds())
	m.loadedRows.Set(float64(rows))
}

func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
