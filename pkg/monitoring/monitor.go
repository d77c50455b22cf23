package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ContentItemsLoaded = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "content_items_loaded",
			Help: "Number of content items currently indexed",
		},
		[]string{"kind"},
	)

	ContentItemsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "content_items_dropped_total",
			Help: "Content items dropped during load for failing validation",
		},
	)

	ContentLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_load_duration_seconds",
			Help:    "Duration of full corpus loads",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_search_duration_seconds",
			Help:    "Duration of text search queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	MigrationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_migration_runs_total",
			Help: "Progress migration runs by outcome",
		},
		[]string{"outcome"},
	)

	MigrationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "progress_migration_duration_seconds",
			Help:    "Duration of progress migrations",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	SnapshotSizeBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "progress_migration_snapshot_bytes",
			Help: "Size of the last written migration snapshot",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ContentItemsLoaded)
	prometheus.MustRegister(ContentItemsDropped)
	prometheus.MustRegister(ContentLoadDuration)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(MigrationRuns)
	prometheus.MustRegister(MigrationDuration)
	prometheus.MustRegister(SnapshotSizeBytes)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
