package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/osa911/contactform/internal/logging"
	"github.com/osa911/contactform/internal/utils"
)

// RequestLogger is a middleware that logs request information.
// It is a no-op unless enabled (LOG_REQUESTS=true).
func RequestLogger(logger *logging.Logger, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.LogHTTPRequest(
			method,
			path,
			utils.ResolveClientIP(c.GetHeader, c.Request.RemoteAddr),
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start).String(),
		)
	}
}
