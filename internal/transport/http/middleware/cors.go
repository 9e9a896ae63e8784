package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS adds Cross-Origin Resource Sharing headers. An empty list disables cross-origin access.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		_, known := allowed[origin]

		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case known:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions && (allowAll || known) {
			c.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin,Content-Type,Accept,"+RequestIDHeader+","+TraceIDHeader+","+ConfirmDeleteAllHeader)
			c.Header("Access-Control-Expose-Headers", RequestIDHeader+","+TraceIDHeader+",Retry-After,X-RateLimit-Remaining")
			c.Header("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ConfirmDeleteAllHeader must be "true" on bulk deletion requests.
const ConfirmDeleteAllHeader = "X-Confirm-Delete-All"
