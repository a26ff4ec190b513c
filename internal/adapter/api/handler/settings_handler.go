package handler

import (
	"github.com/labstack/echo/v4"

	"shopassist/internal/usecase"
	"shopassist/pkg/errors"
	"shopassist/pkg/response"
)

type SettingsHandler struct {
	settingsUseCase *usecase.SettingsUseCase
}

func NewSettingsHandler(settingsUseCase *usecase.SettingsUseCase) *SettingsHandler {
	return &SettingsHandler{
		settingsUseCase: settingsUseCase,
	}
}

func (h *SettingsHandler) GetSettings(c echo.Context) error {
	shopID := c.Get("uid").(string)

	settings, err := h.settingsUseCase.Get(c.Request().Context(), shopID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, settings)
}

func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	var values map[string]interface{}
	if err := c.Bind(&values); err != nil {
		return response.Error(c, errors.BadRequest("Invalid settings payload", err))
	}

	shopID := c.Get("uid").(string)

	settings, err := h.settingsUseCase.Update(c.Request().Context(), shopID, values)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, settings)
}
