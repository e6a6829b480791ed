package handler

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/worth-collab/worth-server/internal/core/ports"
	"github.com/worth-collab/worth-server/internal/notify"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 10 * time.Second
)

// NotificationsHandler upgrades authenticated clients to a long-lived
// WebSocket and plugs them into the notification hub. Opening the socket is
// registerForCallback; closing it, or sending the text frame "unsubscribe",
// is unregisterForCallback.
type NotificationsHandler struct {
	presence ports.PresenceService
	hub      *notify.Hub
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

func NewNotificationsHandler(presence ports.PresenceService, hub *notify.Hub, logger zerolog.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		presence: presence,
		hub:      hub,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are command-line programs, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Subscribe authenticates with nick+password query parameters (the same
// plaintext credentials the TCP login uses) and starts the push stream.
func (h *NotificationsHandler) Subscribe(c echo.Context) error {
	nick := c.QueryParam("nick")
	password := c.QueryParam("password")

	u, err := h.presence.Lookup(nick)
	if err != nil || u.Password != password {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown user or wrong password")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	sub := newWSSubscriber(conn)
	h.hub.Register(sub)
	h.logger.Info().Str("nick", nick).Msg("callback subscriber connected")

	go sub.writePump()
	go h.readLoop(nick, sub)
	return nil
}

// readLoop consumes control frames until the client unsubscribes or the
// socket dies; either way the subscriber leaves the hub.
func (h *NotificationsHandler) readLoop(nick string, sub *wsSubscriber) {
	defer func() {
		h.hub.Unregister(sub)
		sub.close()
		h.logger.Info().Str("nick", nick).Msg("callback subscriber disconnected")
	}()

	for {
		_, msg, err := sub.conn.ReadMessage()
		if err != nil {
			return
		}
		if strings.TrimSpace(string(msg)) == "unsubscribe" {
			return
		}
	}
}

// wsSubscriber adapts one WebSocket connection to notify.Subscriber: a
// buffered send channel decouples the hub's publish pass from the socket,
// and a write pump owns all writes.
type wsSubscriber struct {
	conn *websocket.Conn
	send chan string
	done chan struct{}
	once sync.Once
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{
		conn: conn,
		send: make(chan string, subscriberBuffer),
		done: make(chan struct{}),
	}
}

// Notify queues a snapshot without blocking the hub. A full buffer or a
// closed subscriber counts as a failed delivery, which gets the subscriber
// pruned by the hub.
func (s *wsSubscriber) Notify(snapshot string) error {
	select {
	case <-s.done:
		return errors.New("subscriber closed")
	default:
	}
	select {
	case s.send <- snapshot:
		return nil
	default:
		return errors.New("subscriber buffer full")
	}
}

func (s *wsSubscriber) writePump() {
	defer s.close()
	for {
		select {
		case snapshot := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(snapshot)); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (s *wsSubscriber) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
