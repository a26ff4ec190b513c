package repository

import (
	"context"

	"shopassist/internal/domain/entity"
)

// TailHandle is a live feed over a conversation's log. Events first carries a
// catch-up batch of the most recent messages (oldest first), then every newly
// appended message in log order. Messages may be delivered on both sides of
// the catch-up/live seam; consumers must deduplicate by ID. Release is the
// only way to stop delivery and must be called on conversation switch.
type TailHandle interface {
	Events() <-chan []*entity.Message
	Release()
}

// MessageLog adapts the remote ordered log backing every conversation. Keys
// sort lexicographically in arrival order. The adapter performs no retries of
// its own; failures surface as LOG_UNAVAILABLE so the caller can make
// user-visible decisions.
type MessageLog interface {
	// Tail opens a live feed that starts with the most recent limit messages.
	// ctx bounds only the synchronous catch-up read; once Tail returns, the
	// feed keeps delivering until the handle is released, regardless of ctx.
	Tail(ctx context.Context, shopID, conversationID string, limit int) (TailHandle, error)

	// FetchOlderThan returns up to limit messages strictly older than
	// beforeID, reordered oldest-first. A short (or empty) result means the
	// start of history was reached; that is the exhaustion signal, not an
	// error.
	FetchOlderThan(ctx context.Context, shopID, conversationID, beforeID string, limit int) ([]*entity.Message, error)

	// Append writes a new message, assigning its ID and timestamp, and
	// returns the assigned ID. The write becomes visible to tail
	// subscriptions of all viewers.
	Append(ctx context.Context, shopID, conversationID string, message *entity.Message) (string, error)
}
