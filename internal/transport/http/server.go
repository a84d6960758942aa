// Package http provides the HTTP servers for alertlink.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/gogo/alertlink/internal/channel/ws"
	"github.com/xiaot623/gogo/alertlink/internal/service"
	v1 "github.com/xiaot623/gogo/alertlink/internal/transport/http/v1"
)

// NewAPIServer creates the dispatch API server used by trusted back-end callers.
func NewAPIServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	v1.NewHandler(svc).RegisterRoutes(e)

	return e
}

// NewChannelServer creates the server that accepts websocket chat clients.
func NewChannelServer(wsServer *ws.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())

	wsServer.RegisterRoutes(e)
	e.GET("/health", v1.Health)

	return e
}
