// Package api implements the JSON API of the phototriage service.
package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/khacks/phototriage-go/internal/conf"
	"github.com/khacks/phototriage-go/internal/datastore"
	"github.com/khacks/phototriage-go/internal/logging"
	"github.com/khacks/phototriage-go/internal/pipeline"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	Pipeline *pipeline.Pipeline
	DS       datastore.Interface
	logger   *slog.Logger
}

// New creates a new API controller and registers its routes.
func New(e *echo.Echo, settings *conf.Settings, p *pipeline.Pipeline, ds datastore.Interface) *Controller {
	c := &Controller{
		Echo:     e,
		Settings: settings,
		Pipeline: p,
		DS:       ds,
		logger:   logging.ForService("api"),
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	// The upload endpoint lives at the root path for compatibility with
	// existing clients.
	c.Echo.POST("/upload", c.HandleUpload)

	c.Group.GET("/reports", c.ListReports)
}

// errorResponse is the body of all failed requests.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Controller) errorJSON(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, errorResponse{Success: false, Message: message})
}
