// Package http provides the API server: routing, middleware and the health
// and readiness endpoints.
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
	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/tabvault/internal/config"
	feedsHTTP "github.com/allisson/tabvault/internal/feeds/http"
	imagesHTTP "github.com/allisson/tabvault/internal/images/http"
	"github.com/allisson/tabvault/internal/metrics"
	vaultHTTP "github.com/allisson/tabvault/internal/vault/http"
)

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
	cfg    *config.Config
	db     *sql.DB

	authHandler  *vaultHTTP.AuthHandler
	feedHandler  *feedsHTTP.FeedHandler
	imageHandler *imagesHTTP.ImageHandler

	meterProvider metric.MeterProvider
}

// NewServer creates the API server. db may be nil when the memory driver is
// in use; meterProvider may be nil when metrics are disabled.
func NewServer(
	cfg *config.Config,
	db *sql.DB,
	authHandler *vaultHTTP.AuthHandler,
	feedHandler *feedsHTTP.FeedHandler,
	imageHandler *imagesHTTP.ImageHandler,
	meterProvider metric.MeterProvider,
	logger *slog.Logger,
) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:        logger,
		cfg:           cfg,
		db:            db,
		authHandler:   authHandler,
		feedHandler:   feedHandler,
		imageHandler:  imageHandler,
		meterProvider: meterProvider,
	}
}

// SetupRouter builds the gin engine with middleware and all routes.
func (s *Server) SetupRouter() *gin.Engine {
	gin.SetMode(s.cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(s.cfg.CORSEnabled, s.cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if s.meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(s.meterProvider, s.cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	{
		v1.POST("/auth/login", s.authHandler.LoginHandler)
		v1.GET("/auth/callback", s.authHandler.CallbackHandler)
		v1.GET("/auth/status", s.authHandler.StatusHandler)
		v1.POST("/auth/logout", s.authHandler.LogoutHandler)

		v1.GET("/feeds", s.feedHandler.GetHandler)
		v1.DELETE("/feeds", s.feedHandler.InvalidateHandler)
		v1.GET("/feeds/stats", s.feedHandler.StatsHandler)

		v1.GET("/images/next", s.imageHandler.NextHandler)
		v1.DELETE("/images", s.imageHandler.ClearHandler)
	}

	return router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the storage backend is reachable. With
// the memory driver there is nothing to probe.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}

	if s.db == nil {
		components["storage"] = "memory"
		c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		components["storage"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	components["storage"] = "ok"
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

// Start starts the API server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.SetupRouter()

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
