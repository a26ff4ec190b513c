package handler

import (
	"net/http"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"shopassist/internal/adapter/api/middleware"
	ws "shopassist/internal/infrastructure/websocket"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict to the admin origin before multi-tenant rollout
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
	}
}

// HandleWebSocket upgrades the connection and registers the viewer for
// stream events. Browsers cannot set headers on the upgrade request, so the
// token arrives as a query parameter.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	uid, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upgrade connection")
	}

	client := &ws.Client{
		ViewerID: uuid.New().String(),
		UID:      uid,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}
