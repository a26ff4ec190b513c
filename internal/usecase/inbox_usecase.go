package usecase

import (
	"context"

	"shopassist/internal/domain/entity"
	"shopassist/internal/domain/repository"
	"shopassist/pkg/logger"
)

// InboxUseCase maintains the sidebar's conversation summaries and activates
// streams when a summary is selected. Summaries are independently owned; the
// stream manager only ever reads them.
type InboxUseCase struct {
	conversations repository.ConversationRepository
	stream        *StreamUseCase
}

func NewInboxUseCase(conversations repository.ConversationRepository, stream *StreamUseCase) *InboxUseCase {
	return &InboxUseCase{
		conversations: conversations,
		stream:        stream,
	}
}

func (uc *InboxUseCase) ListConversations(ctx context.Context, shopID string, limit int) ([]*entity.Conversation, error) {
	return uc.conversations.ListByShop(ctx, shopID, limit)
}

// OpenConversation activates the live stream for the selected conversation
// and clears its unread counter. Any previously active conversation is torn
// down first.
func (uc *InboxUseCase) OpenConversation(ctx context.Context, shopID, conversationID string) (*entity.Conversation, error) {
	conversation, err := uc.conversations.GetByID(ctx, shopID, conversationID)
	if err != nil {
		return nil, err
	}

	if err := uc.stream.Activate(ctx, shopID, conversationID); err != nil {
		return nil, err
	}

	if err := uc.conversations.MarkRead(ctx, shopID, conversationID); err != nil {
		logger.Warn("Failed to clear unread counter for %s: %v", conversationID, err)
	}

	return conversation, nil
}

// CloseConversation deactivates the live stream.
func (uc *InboxUseCase) CloseConversation() {
	uc.stream.Deactivate()
}

// SetEscalated flips the needs-a-human flag on a conversation summary.
func (uc *InboxUseCase) SetEscalated(ctx context.Context, shopID, conversationID string, escalated bool) error {
	return uc.conversations.SetEscalated(ctx, shopID, conversationID, escalated)
}
