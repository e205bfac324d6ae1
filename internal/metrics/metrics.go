package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Business metrics
	inquirySubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inquiry_submissions_total",
			Help: "Total number of inquiry form submissions",
		},
	)

	inquiryMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquiry_mutations_total",
			Help: "Total number of admin changes to inquiries",
		},
		[]string{"operation"}, // update, delete
	)

	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of admin login attempts",
		},
		[]string{"status"}, // success, failure
	)
)

// Middleware records request count and latency per matched route.
// The route template (e.g. /api/admin/inquiries/:id) is used as the label so
// ids do not blow up cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler commit the response so the recorded
				// status is the one the client sees.
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordInquirySubmission records a new inquiry.
func RecordInquirySubmission() {
	inquirySubmissionsTotal.Inc()
}

// RecordInquiryMutation records an admin update or delete.
func RecordInquiryMutation(operation string) {
	inquiryMutationsTotal.WithLabelValues(operation).Inc()
}

// RecordAuthAttempt records an authentication attempt
func RecordAuthAttempt(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	authAttemptsTotal.WithLabelValues(status).Inc()
}
