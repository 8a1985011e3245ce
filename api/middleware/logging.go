package middleware

import (
	"time"

	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	keyRequestID = "request_id"
	keyLogger    = "logger"

	HeaderRequestID = "X-Request-ID"
)

func RequestLogging(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(keyRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		reqLogger := log.WithRequestID(requestID)
		c.Set(keyLogger, reqLogger)

		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		reqLogger.Debugw("Request started",
			"method", method,
			"path", path,
			"client_ip", c.ClientIP(),
		)

		c.Next()

		reqLogger.Infow("Request completed",
			"method", method,
			"path", path,
			"status_code", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// LoggerFrom returns the request-scoped logger, or fallback outside a
// logged request.
func LoggerFrom(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if v, ok := c.Get(keyLogger); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return fallback
}
