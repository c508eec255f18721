package monitoring

import (
	"strconv"
	"sync"
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
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// AnswersSaved counts answer writes by outcome: correct, incorrect, imported, skipped.
	AnswersSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_answers_saved_total",
			Help: "Answers written to the server store",
		},
		[]string{"result"},
	)

	ExamCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_cache_requests_total",
			Help: "Exam content cache lookups",
		},
		[]string{"op", "result"},
	)

	ExamUpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exam_upstream_duration_seconds",
			Help:    "Duration of calls to the exam content API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	OTPEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_otp_events_total",
			Help: "One-time passcode events",
		},
		[]string{"event"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AnswersSaved,
			ExamCache,
			ExamUpstreamDuration,
			OTPEvents,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
