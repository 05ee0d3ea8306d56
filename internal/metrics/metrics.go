package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector defines the interface for metrics collection
type Collector interface {
	// Health poll metrics
	HealthPolled(service, result string, httpStatus int, up bool, duration time.Duration)

	// Upstream API metrics
	UpstreamRequest(op, outcome string)

	// HTTP server metrics
	HTTPRequest(method, route string, status int, duration time.Duration)

	// Live feed metrics
	WSClientConnected()
	WSClientDisconnected()
	WSMessageSent(sizeBytes int)
	WSMessageDropped()

	// Handler returns an HTTP handler for metrics endpoint
	Handler() http.Handler
}

// PrometheusCollector implements the Collector interface using Prometheus
type PrometheusCollector struct {
	gatherer prometheus.Gatherer

	// Health poll metrics
	healthPolls     *prometheus.CounterVec
	serviceUp       *prometheus.GaugeVec
	serviceStatus   *prometheus.GaugeVec
	pollDuration    *prometheus.HistogramVec
	upstreamResults *prometheus.CounterVec

	// HTTP metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// Live feed metrics
	wsClients     prometheus.Gauge
	wsMessageSize prometheus.Histogram
	wsDropped     prometheus.Counter
}

// NewPrometheusCollector creates a collector registered with the default registry
func NewPrometheusCollector() *PrometheusCollector {
	return newPrometheusCollector(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewPrometheusCollectorWithRegistry creates a collector on its own registry
func NewPrometheusCollectorWithRegistry(registry *prometheus.Registry) *PrometheusCollector {
	return newPrometheusCollector(registry, registry)
}

func newPrometheusCollector(reg prometheus.Registerer, gatherer prometheus.Gatherer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		gatherer: gatherer,

		healthPolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_health_polls_total",
				Help: "Total number of health polls by result",
			},
			[]string{"service", "result"},
		),

		serviceUp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "console_service_up",
				Help: "Whether the monitored service answered its health check with a 2xx status",
			},
			[]string{"service"},
		),

		serviceStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "console_service_http_status",
				Help: "HTTP status of the last health check, 0 when unreachable",
			},
			[]string{"service"},
		),

		pollDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_health_poll_duration_seconds",
				Help:    "Duration of health polls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service"},
		),

		upstreamResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_upstream_requests_total",
				Help: "Total number of order and inventory API calls by outcome",
			},
			[]string{"op", "outcome"},
		),

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "console_ws_clients",
			Help: "Number of connected live monitor clients",
		}),

		wsMessageSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "console_ws_message_size_bytes",
			Help:    "Size of live monitor messages in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10), // 64B to 32KB
		}),

		wsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_ws_messages_dropped_total",
			Help: "Total number of live monitor messages dropped for slow clients",
		}),
	}
}

// HealthPolled records the outcome of a health poll
func (c *PrometheusCollector) HealthPolled(service, result string, httpStatus int, up bool, duration time.Duration) {
	c.healthPolls.WithLabelValues(service, result).Inc()
	c.serviceStatus.WithLabelValues(service).Set(float64(httpStatus))
	c.pollDuration.WithLabelValues(service).Observe(duration.Seconds())

	if up {
		c.serviceUp.WithLabelValues(service).Set(1)
	} else {
		c.serviceUp.WithLabelValues(service).Set(0)
	}
}

// UpstreamRequest records an order or inventory API call
func (c *PrometheusCollector) UpstreamRequest(op, outcome string) {
	c.upstreamResults.WithLabelValues(op, outcome).Inc()
}

// HTTPRequest records a served HTTP request
func (c *PrometheusCollector) HTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// WSClientConnected records a live feed connection
func (c *PrometheusCollector) WSClientConnected() {
	c.wsClients.Inc()
}

// WSClientDisconnected records a live feed disconnection
func (c *PrometheusCollector) WSClientDisconnected() {
	c.wsClients.Dec()
}

// WSMessageSent records a message written to a live feed client
func (c *PrometheusCollector) WSMessageSent(sizeBytes int) {
	c.wsMessageSize.Observe(float64(sizeBytes))
}

// WSMessageDropped records a message dropped for a slow client
func (c *PrometheusCollector) WSMessageDropped() {
	c.wsDropped.Inc()
}

// Handler returns an HTTP handler for metrics endpoint
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
