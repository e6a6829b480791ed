package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/worth-collab/worth-server/internal/core/ports"
)

// RegistrationHandler exposes the register(nick, password) operation of the
// callback channel.
type RegistrationHandler struct {
	presence ports.PresenceService
}

func NewRegistrationHandler(presence ports.PresenceService) *RegistrationHandler {
	return &RegistrationHandler{presence: presence}
}

type registerRequest struct {
	Nick     string `json:"nick" validate:"required,min=1,max=32"`
	Password string `json:"password" validate:"required,min=1,max=64"`
}

type registerResponse struct {
	Registered bool `json:"registered"`
}

// Register creates a new user account. The new user starts Offline; the
// presence snapshot is broadcast to every callback subscriber.
func (h *RegistrationHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Nicks travel through the space-separated wire protocol and the
	// ";"-separated presence snapshot, so neither character is allowed.
	if strings.ContainsAny(req.Nick, " ;") {
		return echo.NewHTTPError(http.StatusBadRequest, "nick must not contain spaces or semicolons")
	}
	if strings.Contains(req.Password, " ") {
		return echo.NewHTTPError(http.StatusBadRequest, "password must not contain spaces")
	}

	if err := h.presence.Register(c.Request().Context(), req.Nick, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, registerResponse{Registered: true})
}
