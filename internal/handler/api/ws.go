package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/c-johnson06/optionSentinel/internal/hub"
	"github.com/c-johnson06/optionSentinel/pkg/logger"
)

// WSHandler upgrades HTTP requests into live flow connections.
type WSHandler struct {
	log      *logger.Logger
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(log *logger.Logger, h *hub.Hub) *WSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		log: log,
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WSHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

func (h *WSHandler) Serve(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", logger.Error(err))
		return err
	}

	h.log.Debug("viewer connected", logger.String("remote", ws.RemoteAddr().String()))
	hub.NewConn(ws, h.hub, h.log).Start()
	return nil
}
