package middleware

import (
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// LoggingMiddleware logs one line per request with status, latency and encoding.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(log.Fields{
			"method":           c.Request.Method,
			"path":             c.Request.URL.Path,
			"status":           status,
			"latency_ms":       time.Since(start).Milliseconds(),
			"client_ip":        c.ClientIP(),
			"content_encoding": c.Writer.Header().Get("Content-Encoding"),
		})
		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request")
		}
	}
}
