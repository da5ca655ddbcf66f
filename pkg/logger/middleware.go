package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKey is where the request-scoped logger lives in a gin.Context
const ContextKey = "logger"

// Middleware returns a Gin middleware function that logs requests
func Middleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Generate a request ID if one doesn't exist
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)

		reqLogger := logger.WithRequestID(requestID)
		c.Set(ContextKey, reqLogger)

		start := time.Now()
		c.Next()

		reqLogger.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// FromContext returns the request logger stored by Middleware, or the global one
func FromContext(c *gin.Context) *Logger {
	if l, ok := c.Get(ContextKey); ok {
		if reqLogger, ok := l.(*Logger); ok {
			return reqLogger
		}
	}
	return GetGlobal()
}
