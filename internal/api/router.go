// Package api serves the callback/registration channel over HTTP: user
// registration, the WebSocket notification stream, health probes and the
// Prometheus scrape endpoint.
package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/worth-collab/worth-server/internal/api/handler"
	"github.com/worth-collab/worth-server/internal/core/ports"
	"github.com/worth-collab/worth-server/internal/notify"
)

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(presence ports.PresenceService, hub *notify.Hub, readiness []handler.Dependency, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("worth_http"))

	// --- Registration + notification channel ---
	registrationHandler := handler.NewRegistrationHandler(presence)
	notificationsHandler := handler.NewNotificationsHandler(presence, hub, log)

	e.POST("/register", registrationHandler.Register)
	e.GET("/notifications", notificationsHandler.Subscribe)

	// --- Health probes and metrics ---
	healthHandler := handler.NewHealthHandler()
	readyHandler := handler.NewReadinessHandler(readiness)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readyHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
