package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/osa911/contactform/internal/api/handlers"
)

// ContactPaths are the endpoints accepting submissions; /contact.php keeps
// existing form actions working
var ContactPaths = []string{"/api/v1/contact", "/contact.php"}

// SetupContactRoutes configures contact form routes
func SetupContactRoutes(router *gin.Engine, contact *handlers.ContactHandler, m *Middleware) {
	chain := make([]gin.HandlerFunc, 0, 3)
	if m.FloodGuard != nil {
		chain = append(chain, m.FloodGuard)
	}
	if m.Body != nil {
		chain = append(chain, m.Body)
	}
	chain = append(chain, contact.Submit)

	for _, path := range ContactPaths {
		router.POST(path, chain...)
		router.OPTIONS(path, contact.Preflight)
	}
}
