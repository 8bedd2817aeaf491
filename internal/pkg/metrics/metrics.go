package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zonebuf",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zonebuf",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zonebuf",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
	}, []string{"method", "path"})

	// Pipeline metrics
	SegmentsRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zonebuf",
		Subsystem: "ingest",
		Name:      "segments_read_total",
		Help:      "Total street segments read",
	}, []string{"source"})

	SegmentsMalformed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zonebuf",
		Subsystem: "ingest",
		Name:      "segments_malformed_total",
		Help:      "Total street segments rejected for having fewer than two points",
	}, []string{"source"})

	chainsReduced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zonebuf",
		Subsystem: "reduce",
		Name:      "chains_total",
		Help:      "Total chains produced by segment reduction",
	})

	zonesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zonebuf",
		Subsystem: "zone",
		Name:      "built_total",
		Help:      "Total boundaries processed",
	})

	zonePieces = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zonebuf",
		Subsystem: "zone",
		Name:      "pieces_total",
		Help:      "Split chain pieces by geometric outcome",
	}, []string{"outcome"})

	policySkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zonebuf",
		Subsystem: "zone",
		Name:      "policy_skips_total",
		Help:      "Selected pieces dropped by the label policy",
	}, []string{"reason"})

	buffersPerZone = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "zonebuf",
		Subsystem: "zone",
		Name:      "buffers",
		Help:      "Buffer polygons produced per boundary",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	PublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zonebuf",
		Subsystem: "publish",
		Name:      "errors_total",
		Help:      "Total zone publish failures",
	}, []string{"publisher"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zonebuf",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zonebuf",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "zonebuf",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "zonebuf",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "zonebuf",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from a pgxpool.Stat.
func UpdateDBPoolMetrics(stat interface{}) {
	// keeps pgxpool out of this package
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
