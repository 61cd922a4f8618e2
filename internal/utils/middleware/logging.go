package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worldboard/server/internal/shared/logger"
)

// Logging logs one line per request and stores a request-scoped logger
// (request id, caller) in the request context for downstream use.
func Logging(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		query := c.Request.URL.RawQuery

		scoped := log.With("request_id", GetRequestID(c))
		c.Request = c.Request.WithContext(logger.ContextWithLogger(c.Request.Context(), scoped))

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if query != "" {
			attrs = append(attrs, "query", query)
		}
		if userID := GetUserID(c); userID != "" {
			attrs = append(attrs, "user_id", userID)
		}
		if worldID := worldParam(c); worldID != "" {
			attrs = append(attrs, "world_id", worldID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			scoped.Error("HTTP Request", attrs...)
		case status >= 400:
			scoped.Warn("HTTP Request", attrs...)
		default:
			scoped.Info("HTTP Request", attrs...)
		}
	}
}

// worldParam returns the :id path value on /worlds/:id routes.
func worldParam(c *gin.Context) string {
	if !strings.Contains(c.FullPath(), "/worlds/:id") {
		return ""
	}
	return c.Param("id")
}
