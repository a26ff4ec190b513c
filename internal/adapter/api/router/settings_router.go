package router

import (
	"github.com/labstack/echo/v4"

	"shopassist/internal/adapter/api/handler"
	"shopassist/internal/adapter/api/middleware"
)

func SetupSettingsRouter(e *echo.Echo, settingsHandler *handler.SettingsHandler, authMiddleware *middleware.AuthMiddleware) {
	settings := e.Group("/v1/settings")
	settings.Use(authMiddleware.Authenticate)

	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("", settingsHandler.UpdateSettings)
}
