package handler

import (
	"github.com/labstack/echo/v4"

	"shopassist/internal/usecase"
	"shopassist/pkg/response"
)

type ConversationHandler struct {
	streamUseCase   *usecase.StreamUseCase
	composerUseCase *usecase.ComposerUseCase
}

func NewConversationHandler(streamUseCase *usecase.StreamUseCase, composerUseCase *usecase.ComposerUseCase) *ConversationHandler {
	return &ConversationHandler{
		streamUseCase:   streamUseCase,
		composerUseCase: composerUseCase,
	}
}

// GetMessages returns the active conversation's buffer grouped by day.
func (h *ConversationHandler) GetMessages(c echo.Context) error {
	return response.Success(c, map[string]interface{}{
		"groups":    h.streamUseCase.Grouped(),
		"has_older": h.streamUseCase.HasOlder(),
	})
}

// LoadOlder pages one batch further into history and reports how much was
// inserted above the previous top, so the client can keep its scroll anchor.
func (h *ConversationHandler) LoadOlder(c echo.Context) error {
	result, err := h.streamUseCase.LoadOlder(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

type sendMessageRequest struct {
	Text       string   `json:"text"`
	ProductIDs []string `json:"product_ids"`
}

// SendMessage appends an agent reply. The reply shows up in the view through
// the tail subscription, same as any other message.
func (h *ConversationHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	message, err := h.composerUseCase.Send(c.Request().Context(), uid, usecase.SendInput{
		ShopID:         uid,
		ConversationID: c.Param("id"),
		Text:           req.Text,
		ProductIDs:     req.ProductIDs,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// SuggestReply asks the AI collaborator for a draft reply; the draft is
// returned to the composer, never sent automatically.
func (h *ConversationHandler) SuggestReply(c echo.Context) error {
	uid := c.Get("uid").(string)

	reply, err := h.composerUseCase.Suggest(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"reply": reply})
}
