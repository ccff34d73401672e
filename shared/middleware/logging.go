package middleware

import (
	"strconv"
	"time"

	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware tags every request with an id and logs its outcome.
func LoggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set("requestId", requestID)

		c.Next()

		fields := logger.Fields{
			"requestId": requestID,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"clientIp":  c.ClientIP(),
		}
		if user, ok := CurrentUser(c); ok {
			fields["userId"] = user.ID
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Info("request completed", fields)
		}
	}
}

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHttpRequest(service, c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
