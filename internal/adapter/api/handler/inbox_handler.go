package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"shopassist/internal/usecase"
	"shopassist/pkg/response"
)

type InboxHandler struct {
	inboxUseCase *usecase.InboxUseCase
}

func NewInboxHandler(inboxUseCase *usecase.InboxUseCase) *InboxHandler {
	return &InboxHandler{
		inboxUseCase: inboxUseCase,
	}
}

// ListConversations returns the sidebar summaries, most recent first.
func (h *InboxHandler) ListConversations(c echo.Context) error {
	shopID := c.Get("uid").(string)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	conversations, err := h.inboxUseCase.ListConversations(c.Request().Context(), shopID, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

// OpenConversation activates the live stream for a conversation, replacing
// whichever one was active before.
func (h *InboxHandler) OpenConversation(c echo.Context) error {
	shopID := c.Get("uid").(string)
	conversationID := c.Param("id")

	conversation, err := h.inboxUseCase.OpenConversation(c.Request().Context(), shopID, conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

// CloseConversation deactivates the live stream.
func (h *InboxHandler) CloseConversation(c echo.Context) error {
	h.inboxUseCase.CloseConversation()
	return response.Success(c, map[string]string{"status": "closed"})
}

type escalationRequest struct {
	Escalated *bool `json:"escalated" validate:"required"`
}

// SetEscalation flips the needs-a-human flag on a conversation.
func (h *InboxHandler) SetEscalation(c echo.Context) error {
	var req escalationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	shopID := c.Get("uid").(string)
	conversationID := c.Param("id")

	if err := h.inboxUseCase.SetEscalated(c.Request().Context(), shopID, conversationID, *req.Escalated); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"escalated": *req.Escalated})
}
