package router

import (
	"github.com/labstack/echo/v4"

	"shopassist/internal/adapter/api/handler"
)

func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	// Auth happens inside the handler: the upgrade request carries the token
	// as a query parameter.
	e.GET("/ws/inbox", wsHandler.HandleWebSocket)
}
