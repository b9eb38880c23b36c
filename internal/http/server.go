// Package http provides the HTTP server, router setup, and shared middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	commandHTTP "github.com/chronoshq/chronos/internal/command/http"
	outboxHTTP "github.com/chronoshq/chronos/internal/outbox/http"
	workflowHTTP "github.com/chronoshq/chronos/internal/workflow/http"
)

// RouterConfig holds the middleware configuration and feature handlers the
// router is built from.
type RouterConfig struct {
	CORSEnabled       bool
	CORSAllowOrigins  string
	RateLimitEnabled  bool
	RateLimitRPS      float64
	RateLimitBurst    int
	MetricsMiddleware gin.HandlerFunc

	CommandHandler  *commandHTTP.CommandHandler
	OutboxHandler   *outboxHTTP.OutboxHandler
	WorkflowHandler *workflowHTTP.WorkflowHandler
}

// Server represents the HTTP API server.
type Server struct {
	db     *sql.DB
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The database handle is only used by the
// readiness endpoint; passing nil reports the database component as down.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the Gin router with middleware and all API routes.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if cfg.MetricsMiddleware != nil {
		router.Use(cfg.MetricsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, s.logger))
	}

	if cfg.CommandHandler != nil {
		v1.GET("/systems/:system_id/commands", cfg.CommandHandler.ListPendingHandler)
		v1.POST("/commands/:id/complete", cfg.CommandHandler.CompleteHandler)
		v1.POST("/commands/:id/fail", cfg.CommandHandler.FailHandler)
		v1.POST("/events/process", cfg.CommandHandler.ProcessEventHandler)
	}
	if cfg.OutboxHandler != nil {
		v1.POST("/outbox/:id/retry", cfg.OutboxHandler.RetryHandler)
	}
	if cfg.WorkflowHandler != nil {
		v1.GET("/workflow-rules", cfg.WorkflowHandler.ListHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic. The database
// is the only hard dependency; webhook endpoints are checked at dispatch time.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}
	status := "ready"
	code := http.StatusOK

	if s.db == nil {
		components["database"] = "error"
		status = "not_ready"
		code = http.StatusServiceUnavailable
	} else {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(pingCtx); err != nil {
			s.logger.Warn("readiness check failed", slog.Any("error", err))
			components["database"] = "error"
			status = "not_ready"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{"status": status, "components": components})
}
