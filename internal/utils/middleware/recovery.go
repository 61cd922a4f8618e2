package middleware

import (
	"io"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/worldboard/server/internal/shared/logger"
	apperrors "github.com/worldboard/server/internal/utils/errors"
)

// Recovery turns panics into 500 responses in the API error format.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.New(nil)
	}

	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		log.Error("Panic recovered",
			"error", recovered,
			"method", c.Request.Method,
			"route", c.FullPath(),
			"user_id", GetUserID(c),
			"request_id", GetRequestID(c),
			"stack", string(debug.Stack()),
		)

		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apperrors.Internal("internal server error", nil).ToResponse())
	})
}
