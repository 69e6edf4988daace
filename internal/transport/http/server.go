// Package http provides the HTTP server for the legal research service.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/lexcouncil/lexcouncil/internal/hub"
	"github.com/lexcouncil/lexcouncil/internal/service"
)

// NewServer creates and configures the HTTP server.
func NewServer(svc *service.Service, h *hub.Hub) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	handler := NewHandler(svc, h)
	handler.RegisterRoutes(e)

	return e
}
