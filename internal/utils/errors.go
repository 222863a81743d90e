package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/osa911/contactform/internal/api/dto/common"
	"github.com/osa911/contactform/internal/logging"
)

// HandleAPIError logs err with request context and writes a generic error
// envelope; the cause never reaches the caller
func HandleAPIError(c *gin.Context, err error, status int, message string) {
	logger := logging.GetGlobalLogger()
	logger.LogHTTPError(
		c.Request.Method,
		c.Request.URL.Path,
		ResolveClientIP(c.GetHeader, c.Request.RemoteAddr),
		status,
		message,
		err,
	)

	c.AbortWithStatusJSON(status, common.NewErrorResponse(message, nil))
}
