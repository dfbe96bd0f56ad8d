package gateway

import (
	"log/slog"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	hub    *Hub
	logger *slog.Logger
}

func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws/events", h.Events)
}

// Events upgrades the request and streams guidance events until the
// client disconnects.
func (h *Handler) Events(c echo.Context) error {
	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	conn := newClientConn(ws, h.logger)
	h.hub.register(conn)

	go conn.writePump()
	conn.readPump(func() { h.hub.unregister(conn) })
	return nil
}
