package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/logger"
)

// RequestIDHeader carries the per-request correlation identifier.
const RequestIDHeader = "X-Request-ID"

// RequestID injects a correlation identifier into the request context and response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		c.Writer.Header().Set(RequestIDHeader, reqID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), reqID))

		c.Next()
	}
}
