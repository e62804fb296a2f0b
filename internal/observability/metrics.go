package observability

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "classroom"

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	errors    *prometheus.CounterVec
	redirects *prometheus.CounterVec
}

// Snapshot is a point-in-time copy of the counters, keyed "route|method|status"
// for requests and "route|method|code" for errors.
type Snapshot struct {
	Requests  map[string]int64 `json:"requests"`
	Errors    map[string]int64 `json:"errors"`
	AvgMillis map[string]int64 `json:"avg_ms"`
	Redirects map[string]int64 `json:"redirects"`
}

// NewMetrics registers the collectors, including Go runtime and process stats.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "navigation",
			Name:      "redirects_total",
			Help:      "Guard redirects by target screen.",
		}, []string{"target"}),
	}
	m.registry.MustRegister(
		m.requests, m.latency, m.errors, m.redirects,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordRequest counts a finished request and observes its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requests.WithLabelValues(path, method, code).Inc()
	m.latency.WithLabelValues(path, method, code).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// RecordRedirect counts guard redirects per target screen.
func (m *Metrics) RecordRedirect(target string) {
	if m == nil {
		return
	}
	m.redirects.WithLabelValues(target).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Snapshot reads the service collectors back from the registry.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Requests:  map[string]int64{},
		Errors:    map[string]int64{},
		AvgMillis: map[string]int64{},
		Redirects: map[string]int64{},
	}
	if m == nil {
		return snap
	}
	families, err := m.registry.Gather()
	if err != nil {
		return snap
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			switch family.GetName() {
			case namespace + "_http_requests_total":
				key := labels["route"] + "|" + labels["method"] + "|" + labels["status"]
				snap.Requests[key] = int64(metric.GetCounter().GetValue())
			case namespace + "_http_request_duration_seconds":
				h := metric.GetHistogram()
				if h.GetSampleCount() > 0 {
					key := labels["route"] + "|" + labels["method"] + "|" + labels["status"]
					avg := h.GetSampleSum() / float64(h.GetSampleCount())
					snap.AvgMillis[key] = int64(math.Round(avg * 1000))
				}
			case namespace + "_http_errors_total":
				key := labels["route"] + "|" + labels["method"] + "|" + labels["code"]
				snap.Errors[key] = int64(metric.GetCounter().GetValue())
			case namespace + "_navigation_redirects_total":
				snap.Redirects[labels["target"]] = int64(metric.GetCounter().GetValue())
			}
		}
	}
	return snap
}
