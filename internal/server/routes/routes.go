package routes

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/osa911/contactform/internal/api/handlers"
	"github.com/osa911/contactform/internal/api/middleware"
)

// Setup configures all route groups
func Setup(router *gin.Engine, h *Handlers, m *Middleware) {
	SetupHealthRoutes(router, h.Health)
	SetupContactRoutes(router, h.Contact, m)

	// Only POST and OPTIONS are routed; every other verb is a 405
	router.HandleMethodNotAllowed = true
	router.NoMethod(handlers.MethodNotAllowed)
}

// SetupGlobalMiddleware configures middleware that applies to all routes
func SetupGlobalMiddleware(router *gin.Engine, opts GlobalOptions) {
	router.Use(middleware.Recovery(opts.Logger))
	router.Use(otelgin.Middleware(opts.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(opts.Logger, opts.LogRequests))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(opts.AllowedOrigins))
}
