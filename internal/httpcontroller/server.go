// Package httpcontroller encapsulates the Echo server and its middleware.
package httpcontroller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	api "github.com/khacks/phototriage-go/internal/api/v1"
	"github.com/khacks/phototriage-go/internal/conf"
	"github.com/khacks/phototriage-go/internal/datastore"
	"github.com/khacks/phototriage-go/internal/logging"
	"github.com/khacks/phototriage-go/internal/observability"
	"github.com/khacks/phototriage-go/internal/pipeline"
)

// Server encapsulates the Echo server and related configuration.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.Settings
	DS       datastore.Interface
	Pipeline *pipeline.Pipeline
	APIV1    *api.Controller

	webLogger *slog.Logger
}

// New initializes a new HTTP server with the given collaborators.
func New(settings *conf.Settings, ds datastore.Interface, p *pipeline.Pipeline, metrics *observability.Metrics) *Server {
	s := &Server{
		Echo:      echo.New(),
		Settings:  settings,
		DS:        ds,
		Pipeline:  p,
		webLogger: logging.ForService("web"),
	}

	s.Echo.HideBanner = true
	s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()

	s.initMiddleware()
	s.initRoutes(metrics)

	s.APIV1 = api.New(s.Echo, settings, p, ds)

	return s
}

func (s *Server) initMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.CORS())
	s.Echo.Use(middleware.BodyLimit("25M"))
	s.Echo.Use(s.loggingMiddleware())
}

// loggingMiddleware emits one structured log line per request.
func (s *Server) loggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			s.webLogger.Info("Request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"remote_ip", c.RealIP(),
				"duration_ms", time.Since(start).Milliseconds())

			return err
		}
	}
}

func (s *Server) initRoutes(metrics *observability.Metrics) {
	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "phototriage server is running! Use POST /upload to send files.")
	})

	s.Echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// Static preview of uploaded artifacts
	if s.Settings.Uploads.Path != "" {
		s.Echo.Static("/uploads", s.Settings.Uploads.Path)
	}

	if metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}
}

// Start begins listening and serving HTTP requests.
func (s *Server) Start() error {
	listenAddr := fmt.Sprintf("%s:%s", s.Settings.WebServer.Address, s.Settings.WebServer.Port)
	s.webLogger.Info("HTTP server listening", "address", listenAddr)

	if err := s.Echo.Start(listenAddr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
