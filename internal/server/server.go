package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker is an interface for components that can report their health status.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP server.
type Options struct {
	Addr            string
	Mode            string // debug | release
	ShutdownTimeout time.Duration

	// EventStore is critical: an unreachable event store makes the service unhealthy.
	EventStore HealthChecker
	// Analytics is optional; when it fails the service reports "degraded".
	Analytics HealthChecker
}

type Server struct {
	Engine *gin.Engine
	opts   Options
}

func New(opts Options) *Server {
	if opts.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	s := &Server{
		Engine: r,
		opts:   opts,
	}

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Group returns a route group guarded by the given middleware.
func (s *Server) Group(middleware ...gin.HandlerFunc) *gin.RouterGroup {
	return s.Engine.Group("", middleware...)
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if s.opts.EventStore != nil {
		if err := s.opts.EventStore.Ping(ctx); err != nil {
			slog.Error("[Server] Health check failed: event store unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "unhealthy",
				"event_store": "unreachable",
			})
			return
		}
	}

	body := gin.H{
		"status":      "healthy",
		"event_store": "connected",
		"analytics":   "disabled",
	}
	if s.opts.Analytics != nil {
		body["analytics"] = "connected"
		if err := s.opts.Analytics.Ping(ctx); err != nil {
			slog.Warn("[Server] Analytical store unreachable", "error", err)
			body["status"] = "degraded"
			body["analytics"] = "unreachable"
		}
	}

	c.JSON(http.StatusOK, body)
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.Engine,
	}

	slog.Info("[Server] Starting HTTP server", "address", s.opts.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("[Server] Stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("[Server] HTTP server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
