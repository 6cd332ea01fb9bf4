package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/modulbox/leadform-backend/internal/common"
	"github.com/modulbox/leadform-backend/pkg/logger"
	"github.com/rs/zerolog"
)

// RequestLogger logs every request once it completes. Upload rejections are
// logged at warn level with their rejection code.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		l := logger.WithRequestID(requestID)

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = l.Error()
		case status >= 400:
			event = l.Warn()
		default:
			event = l.Info()
		}

		if id := c.Param("id"); id != "" {
			event = event.Str("resource_id", id)
		}
		if code := c.GetString(common.RejectionCodeKey); code != "" {
			event = event.Str("rejection", code)
		}

		event.
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int64("request_size", c.Request.ContentLength).
			Int("body_size", c.Writer.Size()).
			Msg("request")
	}
}
