package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status_code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"method", "endpoint"})

	chatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_requests_total",
		Help: "Total chat requests",
	}, []string{"status"})

	fileUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "file_uploads_total",
		Help: "Total file uploads",
	}, []string{"file_type"})

	fileUploadSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "file_upload_size_bytes",
		Help:    "Uploaded file size",
		Buckets: []float64{1024, 10240, 102400, 1 << 20, 10 << 20, 100 << 20},
	}, []string{"file_type"})
)

// MetricsHandler 暴露 Prometheus 抓取端点
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Metrics 记录每个端点的请求量与时延，聊天与上传端点额外
// 记录业务维度的计数
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())

		if endpoint == "/chat" && c.Request.Method == http.MethodPost {
			result := "success"
			if status >= http.StatusBadRequest {
				result = "error"
			}
			chatRequestsTotal.WithLabelValues(result).Inc()
		}

		if c.Request.Method == http.MethodPost && status < http.StatusBadRequest {
			if kind, ok := uploadKind(endpoint); ok {
				fileUploadsTotal.WithLabelValues(kind).Inc()
				if c.Request.ContentLength > 0 {
					fileUploadSize.WithLabelValues(kind).Observe(float64(c.Request.ContentLength))
				}
			}
		}
	}
}

func uploadKind(endpoint string) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "/upload-image"):
		return "image", true
	case strings.HasPrefix(endpoint, "/upload-csv"):
		return "csv", true
	case strings.HasPrefix(endpoint, "/upload-document"):
		return "document", true
	}
	return "", false
}
