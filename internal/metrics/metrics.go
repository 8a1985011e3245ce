package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"furniture-miniapp/internal/backend"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "furniture_miniapp"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	backendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "calls_total",
			Help:      "Backend calls by operation, table and outcome.",
		},
		[]string{"op", "table", "outcome"},
	)

	backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "call_duration_seconds",
			Help:      "Duration of backend calls.",
			Buckets:   prometheus.ExponentialBuckets(0.002, 2, 12),
		},
		[]string{"op", "table"},
	)

	activityPurgeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "purge_runs_total",
			Help:      "Retention sweeper passes by outcome.",
		},
		[]string{"success"},
	)

	activityPurgedRows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "purged_rows_total",
			Help:      "Activity rows removed by the retention sweeper.",
		},
	)

	activeSessions = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Live Mini-App sessions.",
		},
		func() float64 { return float64(sessionCount()) },
	)

	sessionCount = func() int { return 0 }
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		backendCalls,
		backendDuration,
		activityPurgeRuns,
		activityPurgedRows,
		activeSessions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// BackendObserver feeds backend.Client call outcomes into the registry.
func BackendObserver() backend.Observer {
	return func(op, table string, err error, elapsed time.Duration) {
		backendCalls.WithLabelValues(op, table, outcome(err)).Inc()
		backendDuration.WithLabelValues(op, table).Observe(elapsed.Seconds())
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case backend.IsNoRows(err):
		return "no_rows"
	case errors.Is(err, backend.ErrBackendUnavailable):
		return "unavailable"
	default:
		return backend.Classify(err).String()
	}
}

// PurgeObserver records retention sweeper passes.
type PurgeObserver struct{}

func (PurgeObserver) ObservePurge(rows int64, _ time.Duration, err error) {
	activityPurgeRuns.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
	if rows > 0 {
		activityPurgedRows.Add(float64(rows))
	}
}

// TrackSessions makes the session gauge report count().
func TrackSessions(count func() int) {
	if count != nil {
		sessionCount = count
	}
}
