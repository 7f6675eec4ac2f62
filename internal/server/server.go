// Package server exposes the analyzer over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Measum-Shah/Github-Profile-Analyzer/docs"
	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/frontend"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/monitoring"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/security"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/service"
)

// Version is reported by /health
var Version = "dev"

// GitHubStatus reports upstream client state for /health
type GitHubStatus interface {
	Stats() map[string]interface{}
}

// Options wires a Server
type Options struct {
	Analyzer  service.Analyzer
	Metrics   *monitoring.Metrics
	Logger    *monitoring.Logger
	Security  security.SecurityConfig
	Dashboard *frontend.Dashboard
	GitHub    GitHubStatus
}

// Server is the HTTP front of the analyzer
type Server struct {
	router    *gin.Engine
	analyzer  service.Analyzer
	metrics   *monitoring.Metrics
	logger    *monitoring.Logger
	security  *security.SecurityMiddleware
	dashboard *frontend.Dashboard
	github    GitHubStatus
	startedAt time.Time
}

// New builds the router and registers every route
func New(opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = monitoring.NewLogger()
	}

	s := &Server{
		router:    gin.New(),
		analyzer:  opts.Analyzer,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		security:  security.NewSecurityMiddleware(opts.Security),
		dashboard: opts.Dashboard,
		github:    opts.GitHub,
		startedAt: time.Now(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the gin engine
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	r := s.router

	r.Use(apperrors.RecoveryHandler())
	r.Use(RequestID())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger))
	r.Use(security.SecurityHeadersMiddleware())
	r.Use(security.CSPMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.security.AllowedOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(s.security.RequestTimeout)
	r.Use(s.security.RateLimitByIP)
	r.Use(apperrors.ErrorHandler())
}

func (s *Server) setupRoutes() {
	r := s.router

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.POST("/analyze", s.security.ValidateContentType, s.handleAnalyze)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if s.dashboard != nil {
		r.GET("/", s.dashboard.Handler())
		r.GET("/assets/*filepath", s.dashboard.Handler())
	}

	r.NoRoute(func(c *gin.Context) {
		apperrors.Respond(c, apperrors.NewRouteNotFoundError(c.Request.Method, c.Request.URL.Path))
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	s.security.Cleanup(cleanupCtx, 5*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.SystemLogger("server_start", "listening on "+addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.SystemLogger("server_shutdown", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
