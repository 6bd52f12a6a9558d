// Package metrics exposes Prometheus instrumentation: HTTP traffic via a Gin
// middleware, and domain counters fed from the event bus. Label sets stay
// small on purpose; lead and buyer IDs never become labels.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	leadsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of leads accepted at intake.",
		},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_status_transitions_total",
			Help: "Total lead status machine transitions.",
		},
		[]string{"from", "to", "source"},
	)

	auctionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auctions_completed_total",
			Help: "Total auction runs by terminal outcome.",
		},
		[]string{"outcome"},
	)

	winningBids = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auction_winning_bid_dollars",
			Help:    "Winning bid amounts for sold leads.",
			Buckets: []float64{5, 10, 20, 40, 60, 80, 100, 150, 200, 300, 500},
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, leadsCreated, statusTransitions, auctionsCompleted, winningBids)
}

// HTTPMiddleware instruments requests. The path label uses the registered
// route (c.FullPath()) to keep cardinality bounded; unmatched requests fall
// back to the raw URL path.
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
