package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soundprediction/duocdien/pkg/config"
	"github.com/soundprediction/duocdien/pkg/server/handlers"
	"github.com/soundprediction/duocdien/pkg/utils"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 30 * time.Second

// Services are the collaborators behind the HTTP routes. Nil fields make the
// matching routes answer 503.
type Services struct {
	Asker    handlers.Asker
	Searcher handlers.DetailedSearcher
	// Checks are probed by /ready and /health/detailed.
	Checks map[string]handlers.Check
}

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	services Services
	logger   *slog.Logger
	router   *gin.Engine
	registry *prometheus.Registry
	metrics  *Metrics
	server   *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   cfg,
		services: services,
		logger:   logger,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	if s.config.Server.Mode != "" {
		gin.SetMode(s.config.Server.Mode)
	}

	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = NewMetrics(s.registry)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())
	s.router.Use(loggerMiddleware(s.logger))
	s.router.Use(s.metrics.middleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.services.Checks)
	askHandler := handlers.NewAskHandler(s.services.Asker, s.logger, s.metrics.ObserveAnswer)
	searchHandler := handlers.NewSearchHandler(s.services.Searcher, s.config.Search.DefaultTopK)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/ask", askHandler.Ask)
		v1.POST("/cypher", askHandler.Cypher)
		v1.POST("/search", searchHandler.Search)
	}
}

// Handler returns the configured router. Setup must have been called.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.server.Shutdown(ctx)
}

// Run serves until ctx is cancelled, then shuts down within ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	utils.SafeGo(func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}, func(err error) {
		errCh <- err
		close(errCh)
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
