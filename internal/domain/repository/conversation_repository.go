package repository

import (
	"context"
	"time"

	"shopassist/internal/domain/entity"
)

type ConversationRepository interface {
	GetByID(ctx context.Context, shopID, conversationID string) (*entity.Conversation, error)
	ListByShop(ctx context.Context, shopID string, limit int) ([]*entity.Conversation, error)

	// RecordMessage updates the summary after an append: last-message preview,
	// timestamp, and optionally the unread counter.
	RecordMessage(ctx context.Context, shopID, conversationID, preview string, at time.Time, incrementUnread bool) error

	SetEscalated(ctx context.Context, shopID, conversationID string, escalated bool) error
	MarkRead(ctx context.Context, shopID, conversationID string) error
}
