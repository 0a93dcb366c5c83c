// File: internal/platform/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wecare"

// Outcomes recorded for AI match requests.
const (
	MatchOutcomeSuccess = "success"
	MatchOutcomeEmpty   = "empty"
	MatchOutcomeError   = "error"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	donationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "donation_transitions_total",
		Help:      "Committed donation lifecycle transitions by resulting state.",
	}, []string{"state"})

	matchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ai_match_requests_total",
		Help:      "AI match orchestrations by outcome.",
	}, []string{"outcome"})

	matchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ai_match_duration_seconds",
		Help:      "Time spent waiting on the language model.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})
)

// Middleware records request count and latency. Unmatched routes are grouped
// under "unmatched" so path parameters never become label values.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// DonationTransition counts a committed transition into state
// ("pending" for creation, "deleted" for removal).
func DonationTransition(state string) {
	donationTransitions.WithLabelValues(state).Inc()
}

// ObserveMatch records one orchestration and, when the model was called, its latency.
func ObserveMatch(outcome string, modelLatency time.Duration) {
	matchRequests.WithLabelValues(outcome).Inc()
	if modelLatency > 0 {
		matchDuration.Observe(modelLatency.Seconds())
	}
}
