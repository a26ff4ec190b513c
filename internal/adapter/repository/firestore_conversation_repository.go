package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"shopassist/internal/domain/entity"
	"shopassist/internal/domain/repository"
	"shopassist/pkg/errors"
	"shopassist/pkg/logger"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) conversations(shopID string) *firestore.CollectionRef {
	return r.client.Collection("shops").Doc(shopID).Collection("conversations")
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, shopID, conversationID string) (*entity.Conversation, error) {
	doc, err := r.conversations(shopID).Doc(conversationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID

	return &conversation, nil
}

func (r *firestoreConversationRepository) ListByShop(ctx context.Context, shopID string, limit int) ([]*entity.Conversation, error) {
	query := r.conversations(shopID).OrderBy("lastMessageAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var conversations []*entity.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Warn("Firestore error while listing conversations for shop %s: %v", shopID, err)
			return nil, errors.Internal("Failed to list conversations", err)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
			continue
		}
		conversation.ID = doc.Ref.ID
		conversations = append(conversations, &conversation)
	}

	return conversations, nil
}

func (r *firestoreConversationRepository) RecordMessage(ctx context.Context, shopID, conversationID, preview string, at time.Time, incrementUnread bool) error {
	updates := []firestore.Update{
		{Path: "lastMessage", Value: preview},
		{Path: "lastMessageAt", Value: at},
		{Path: "updatedAt", Value: at},
	}
	if incrementUnread {
		updates = append(updates, firestore.Update{Path: "unreadCount", Value: firestore.Increment(1)})
	}

	docRef := r.conversations(shopID).Doc(conversationID)
	_, err := docRef.Update(ctx, updates)
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return errors.Internal("Failed to update conversation summary", err)
	}

	// First message of a brand new session: create the summary document.
	unread := 0
	if incrementUnread {
		unread = 1
	}
	_, err = docRef.Set(ctx, &entity.Conversation{
		LastMessage:   preview,
		LastMessageAt: at,
		UnreadCount:   unread,
		CreatedAt:     at,
		UpdatedAt:     at,
	})
	if err != nil {
		return errors.Internal("Failed to create conversation summary", err)
	}

	return nil
}

func (r *firestoreConversationRepository) SetEscalated(ctx context.Context, shopID, conversationID string, escalated bool) error {
	_, err := r.conversations(shopID).Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "isEscalated", Value: escalated},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to update escalation flag", err)
	}

	return nil
}

func (r *firestoreConversationRepository) MarkRead(ctx context.Context, shopID, conversationID string) error {
	_, err := r.conversations(shopID).Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "unreadCount", Value: 0},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to mark conversation read", err)
	}

	return nil
}
