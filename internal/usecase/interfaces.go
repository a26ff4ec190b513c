package usecase

import (
	"context"

	"shopassist/internal/domain/entity"
)

// ProductCatalog is the commerce catalog collaborator. Lookups are batched;
// unknown ids are absent from the result rather than an error.
type ProductCatalog interface {
	FetchByIDs(ctx context.Context, ids []string) ([]entity.ProductSummary, error)
}

// ReplyGenerator is the AI reply-generation collaborator: conversation
// history in, one suggested reply out.
type ReplyGenerator interface {
	Generate(ctx context.Context, history []*entity.Message) (string, error)
}

// EventSink receives serialized stream events for delivery to the owning
// merchant's connected admin viewers. Satisfied by the websocket manager.
type EventSink interface {
	SendToUser(uid string, message []byte)
}
