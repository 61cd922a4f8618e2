// Package response renders errors in the board's JSON error shape.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/worldboard/server/internal/utils/errors"
	"github.com/worldboard/server/internal/utils/requestctx"
)

// Error writes err as {"error":{"code","message"}} and aborts the chain.
// AppErrors keep their status and message, so denials reach the client
// verbatim. Anything else becomes a 500 with a generic message. Only
// server-side failures are logged.
func Error(c *gin.Context, log *zap.Logger, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal("internal error", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError && log != nil {
		ctx := c.Request.Context()
		log.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.String("code", appErr.Code),
			zap.String("request_id", requestctx.RequestID(ctx)),
			zap.String("user_id", requestctx.UserID(ctx)),
			zap.Error(err),
		)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
}

// BadRequest writes a 400 response for malformed input.
func BadRequest(c *gin.Context, message string) {
	Error(c, nil, apperrors.BadRequest(message))
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, nil, apperrors.Unauthorized(message))
}
