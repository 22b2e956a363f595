// Package metrics provides Prometheus instrumentation for the AegisPay demo.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegispay",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aegispay",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// TransactionsTotal counts feed transactions by risk status.
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegispay",
			Name:      "transactions_total",
			Help:      "Total transactions recorded by risk status.",
		},
		[]string{"status"},
	)

	// AlertsTotal counts fraud alerts raised by priority.
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegispay",
			Name:      "alerts_total",
			Help:      "Total fraud alerts raised by priority.",
		},
		[]string{"priority"},
	)

	// HoldsExpiredTotal counts holds escalated to blocked by the sweeper.
	HoldsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "aegispay",
		Name:      "holds_expired_total",
		Help:      "Total on-hold transactions auto-blocked after the hold timer lapsed.",
	})

	// RiskScore observes the score distribution produced by the classifier.
	RiskScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aegispay",
		Name:      "risk_score",
		Help:      "Distribution of computed risk scores.",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	// LoginsTotal counts login attempts by result.
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegispay",
			Name:      "logins_total",
			Help:      "Total login attempts by result (success, failure, locked).",
		},
		[]string{"result"},
	)

	// FeedClients tracks connected live-feed WebSocket clients.
	FeedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aegispay",
			Name:      "feed_clients",
			Help:      "Number of currently connected live-feed WebSocket clients.",
		},
	)

	// FeedEventsTotal counts broadcast live-feed events by type.
	FeedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegispay",
			Name:      "feed_events_total",
			Help:      "Total live-feed events broadcast by event type.",
		},
		[]string{"type"},
	)

	// SimulationRunsTotal counts attack simulations started by scenario.
	SimulationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegispay",
			Name:      "simulation_runs_total",
			Help:      "Total attack simulations started by scenario.",
		},
		[]string{"scenario"},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "aegispay", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "aegispay", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "aegispay", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "aegispay", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		TransactionsTotal,
		AlertsTotal,
		HoldsExpiredTotal,
		RiskScore,
		LoginsTotal,
		FeedClients,
		FeedEventsTotal,
		SimulationRunsTotal,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
