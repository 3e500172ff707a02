package http

import "github.com/labstack/echo/v4"

// Handler is anything that can attach its routes to the shared Echo server.
// The REST surface and the websocket endpoint each implement it.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
