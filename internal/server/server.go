package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/osa911/contactform/internal/api/handlers"
	"github.com/osa911/contactform/internal/api/middleware"
	"github.com/osa911/contactform/internal/config"
	"github.com/osa911/contactform/internal/logging"
	"github.com/osa911/contactform/internal/server/routes"
)

const (
	serviceName     = "contactform"
	shutdownTimeout = 10 * time.Second
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	cfg    *config.Config
	logger *logging.Logger
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Disable Gin's default logger entirely because we're using our custom logger
	gin.DisableConsoleColor()
	gin.DefaultWriter = io.Discard

	// Create a new engine without default middleware
	router := gin.New()

	return &Server{
		router: router,
		cfg:    cfg,
		logger: logger,
	}
}

// Init installs middleware and routes around processor
func (s *Server) Init(processor handlers.ContactProcessor) {
	routes.SetupGlobalMiddleware(s.router, routes.GlobalOptions{
		Logger:         s.logger,
		AllowedOrigins: s.cfg.AllowedOrigins,
		LogRequests:    s.cfg.LogRequests,
		ServiceName:    serviceName,
	})

	routes.Setup(s.router, &routes.Handlers{
		Contact: handlers.NewContactHandler(processor),
		Health:  handlers.NewHealthHandler(),
	}, &routes.Middleware{
		FloodGuard: middleware.RateLimitMiddleware(middleware.RateLimitConfig{
			RPS:   s.cfg.GlobalRPS,
			Burst: s.cfg.GlobalBurst,
		}),
		Body: middleware.PreserveRequestBody(s.cfg.MaxBodyBytes),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Contact API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down contact API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
