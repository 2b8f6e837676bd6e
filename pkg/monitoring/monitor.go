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
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	QuizzesStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "digcomp_quizzes_started_total",
			Help: "Quiz sessions started with a generated battery",
		},
	)

	QuizzesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digcomp_quizzes_completed_total",
			Help: "Quiz sessions finished, by verdict",
		},
		[]string{"estado"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digcomp_answers_total",
			Help: "Evaluated answers, by outcome state",
		},
		[]string{"estado"},
	)

	ResourceLookupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "digcomp_resource_lookup_failures_total",
			Help: "Failed resource lookups during recommendation",
		},
	)

	ReportEmails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digcomp_report_emails_total",
			Help: "Report e-mails, by result",
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(QuizzesStarted)
	prometheus.MustRegister(QuizzesCompleted)
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(ResourceLookupFailures)
	prometheus.MustRegister(ReportEmails)
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
