package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/osa911/contactform/internal/api/handlers"
	"github.com/osa911/contactform/internal/logging"
)

// Handlers contains all the route handlers
type Handlers struct {
	Contact *handlers.ContactHandler
	Health  *handlers.HealthHandler
}

// Middleware contains route-scoped middleware
type Middleware struct {
	// FloodGuard caps the process-wide submission rate
	FloodGuard gin.HandlerFunc
	// Body buffers the request body for the processor
	Body gin.HandlerFunc
}

// GlobalOptions configures middleware applied to every route
type GlobalOptions struct {
	Logger         *logging.Logger
	AllowedOrigins []string
	LogRequests    bool
	ServiceName    string
}
