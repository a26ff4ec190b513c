package router

import (
	"github.com/labstack/echo/v4"

	"shopassist/internal/adapter/api/handler"
	"shopassist/internal/adapter/api/middleware"
)

// SetupInboxRouter wires the support-inbox routes. One conversation is live
// at a time; opening a conversation replaces the previous stream.
func SetupInboxRouter(e *echo.Echo, inboxHandler *handler.InboxHandler, conversationHandler *handler.ConversationHandler, authMiddleware *middleware.AuthMiddleware) {
	inbox := e.Group("/v1/inbox")
	inbox.Use(authMiddleware.Authenticate)

	inbox.GET("/conversations", inboxHandler.ListConversations)
	inbox.POST("/conversations/:id/open", inboxHandler.OpenConversation)
	inbox.POST("/conversations/close", inboxHandler.CloseConversation)
	inbox.PUT("/conversations/:id/escalation", inboxHandler.SetEscalation)

	inbox.GET("/conversations/:id/messages", conversationHandler.GetMessages)
	inbox.POST("/conversations/:id/messages/older", conversationHandler.LoadOlder)
	inbox.POST("/conversations/:id/messages", conversationHandler.SendMessage)
	inbox.POST("/conversations/:id/suggest", conversationHandler.SuggestReply)
}
