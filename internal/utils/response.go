package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osa911/contactform/internal/api/dto/common"
)

// HandleSuccess sends a success envelope with message
func HandleSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, common.NewSuccessResponse(message))
}

// HandleFailure sends an error envelope with status and optional field errors
func HandleFailure(c *gin.Context, status int, message string, errors map[string]string) {
	c.JSON(status, common.NewErrorResponse(message, errors))
}

// HandleNoContent sends a success response with no content
func HandleNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
