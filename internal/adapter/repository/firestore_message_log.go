package repository

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"shopassist/internal/domain/entity"
	"shopassist/internal/domain/repository"
	"shopassist/pkg/errors"
	"shopassist/pkg/logger"
	"shopassist/pkg/utils"
)

// firestoreMessageLog stores each conversation's messages under
// shops/{shopID}/conversations/{conversationID}/messages, one document per
// message, keyed by a push-generated ID so document order is arrival order.
type firestoreMessageLog struct {
	client *firestore.Client
}

func NewFirestoreMessageLog(client *firestore.Client) repository.MessageLog {
	return &firestoreMessageLog{
		client: client,
	}
}

func (l *firestoreMessageLog) messages(shopID, conversationID string) *firestore.CollectionRef {
	return l.client.Collection("shops").Doc(shopID).
		Collection("conversations").Doc(conversationID).
		Collection("messages")
}

func (l *firestoreMessageLog) Append(ctx context.Context, shopID, conversationID string, message *entity.Message) (string, error) {
	message.ID = utils.NewPushID()
	message.Timestamp = time.Now().UnixMilli()

	_, err := l.messages(shopID, conversationID).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return "", errors.LogUnavailable("Failed to append message", err)
	}

	return message.ID, nil
}

func (l *firestoreMessageLog) FetchOlderThan(ctx context.Context, shopID, conversationID, beforeID string, limit int) ([]*entity.Message, error) {
	query := l.messages(shopID, conversationID).
		OrderBy(firestore.DocumentID, firestore.Desc).
		StartAfter(beforeID).
		Limit(limit)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var newestFirst []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Warn("Firestore error while paging history for conversation %s: %v", conversationID, err)
			return nil, errors.LogUnavailable("Failed to fetch older messages", err)
		}

		message, err := docToMessage(doc)
		if err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		newestFirst = append(newestFirst, message)
	}

	// The query walks backwards; callers expect oldest-first.
	for i, j := 0, len(newestFirst)-1; i < j; i, j = i+1, j-1 {
		newestFirst[i], newestFirst[j] = newestFirst[j], newestFirst[i]
	}

	return newestFirst, nil
}

func (l *firestoreMessageLog) Tail(ctx context.Context, shopID, conversationID string, limit int) (repository.TailHandle, error) {
	catchUp, err := l.fetchMostRecent(ctx, shopID, conversationID, limit)
	if err != nil {
		return nil, err
	}

	// ctx scopes only the catch-up read above. The activating request
	// completes long before the conversation is switched away, so the
	// listener runs on its own context and stops only on Release.
	tailCtx, cancel := context.WithCancel(context.Background())
	handle := &firestoreTailHandle{
		events: make(chan []*entity.Message, 8),
		cancel: cancel,
	}

	query := l.messages(shopID, conversationID).OrderBy(firestore.DocumentID, firestore.Asc)
	if len(catchUp) > 0 {
		query = query.StartAfter(catchUp[len(catchUp)-1].ID)
	}

	go handle.run(tailCtx, conversationID, catchUp, query)

	return handle, nil
}

func (l *firestoreMessageLog) fetchMostRecent(ctx context.Context, shopID, conversationID string, limit int) ([]*entity.Message, error) {
	iter := l.messages(shopID, conversationID).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var newestFirst []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.LogUnavailable("Failed to read recent messages", err)
		}

		message, err := docToMessage(doc)
		if err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		newestFirst = append(newestFirst, message)
	}

	for i, j := 0, len(newestFirst)-1; i < j; i, j = i+1, j-1 {
		newestFirst[i], newestFirst[j] = newestFirst[j], newestFirst[i]
	}

	return newestFirst, nil
}

type firestoreTailHandle struct {
	events chan []*entity.Message
	cancel context.CancelFunc
	once   sync.Once
}

func (h *firestoreTailHandle) Events() <-chan []*entity.Message {
	return h.events
}

func (h *firestoreTailHandle) Release() {
	h.once.Do(h.cancel)
}

func (h *firestoreTailHandle) run(ctx context.Context, conversationID string, catchUp []*entity.Message, query firestore.Query) {
	defer close(h.events)

	if len(catchUp) > 0 {
		select {
		case h.events <- catchUp:
		case <-ctx.Done():
			return
		}
	}

	snapshots := query.Snapshots(ctx)
	defer snapshots.Stop()

	for {
		snap, err := snapshots.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled {
				return
			}
			// Transient stream errors are retried inside the listener; an
			// error surfacing here is terminal for this subscription.
			logger.Warn("Tail subscription for conversation %s closed: %v", conversationID, err)
			return
		}

		var batch []*entity.Message
		for _, change := range snap.Changes {
			if change.Kind != firestore.DocumentAdded {
				continue
			}
			message, err := docToMessage(change.Doc)
			if err != nil {
				logger.Warn("Skipping unparseable message in conversation %s: %v", conversationID, err)
				continue
			}
			batch = append(batch, message)
		}

		if len(batch) == 0 {
			continue
		}

		select {
		case h.events <- batch:
		case <-ctx.Done():
			return
		}
	}
}

func docToMessage(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, err
	}
	message.ID = doc.Ref.ID
	return &message, nil
}
