package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osa911/contactform/internal/api/dto/common"
	"github.com/osa911/contactform/internal/api/middleware"
	"github.com/osa911/contactform/internal/service"
	"github.com/osa911/contactform/internal/utils"
)

// ContactProcessor runs one submission through the intake pipeline
type ContactProcessor interface {
	Process(ctx context.Context, req *service.ContactRequest) service.Outcome
}

type ContactHandler struct {
	processor ContactProcessor
}

func NewContactHandler(processor ContactProcessor) *ContactHandler {
	return &ContactHandler{processor: processor}
}

// Submit handles POST of the contact form, JSON or form-encoded
func (h *ContactHandler) Submit(c *gin.Context) {
	body, err := middleware.RawBody(c)
	if err != nil {
		utils.HandleAPIError(c, err, http.StatusBadRequest, common.MsgBadRequest)
		return
	}

	out := h.processor.Process(c.Request.Context(), &service.ContactRequest{
		Header:      c.Request.Header,
		RemoteAddr:  c.Request.RemoteAddr,
		UserAgent:   c.Request.UserAgent(),
		ContentType: c.GetHeader("Content-Type"),
		Body:        body,
	})

	if out.Accepted() {
		utils.HandleSuccess(c, out.Message)
		return
	}

	// Field errors are only meaningful for validation failures
	var errs map[string]string
	if out.Kind == service.OutcomeValidationFailed {
		errs = out.Errors
	}
	utils.HandleFailure(c, out.Status, out.Message, errs)
}

// Preflight answers CORS preflight requests without running the pipeline
func (h *ContactHandler) Preflight(c *gin.Context) {
	utils.HandleNoContent(c)
}

// MethodNotAllowed rejects verbs other than POST and OPTIONS
func MethodNotAllowed(c *gin.Context) {
	utils.HandleFailure(c, http.StatusMethodNotAllowed, common.MsgMethodNotAllowed, nil)
}
