package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"shopassist/internal/domain/entity"
	"shopassist/internal/domain/repository"
	"shopassist/internal/infrastructure/ratelimit"
	"shopassist/pkg/errors"
	"shopassist/pkg/logger"
)

// suggestionContextSize is how many recent messages are sent to the
// reply-generation service as context.
const suggestionContextSize = 10

// ComposerUseCase sends agent replies and fetches AI reply suggestions.
// Sends are single-flight per conversation; the sent message is reflected
// back through the tail subscription, so there is no separate optimistic
// append path.
type ComposerUseCase struct {
	log           repository.MessageLog
	conversations repository.ConversationRepository
	stream        *StreamUseCase
	generator     ReplyGenerator
	rateLimiter   *ratelimit.RateLimiter

	mu          sync.Mutex
	sending     map[string]bool
	suggestions singleflight.Group
}

func NewComposerUseCase(
	log repository.MessageLog,
	conversations repository.ConversationRepository,
	stream *StreamUseCase,
	generator ReplyGenerator,
) *ComposerUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ComposerUseCase{
		log:           log,
		conversations: conversations,
		stream:        stream,
		generator:     generator,
		rateLimiter:   rateLimiter,
		sending:       make(map[string]bool),
	}
}

type SendInput struct {
	ShopID         string
	ConversationID string
	Text           string
	ProductIDs     []string
}

// Send appends an agent reply to the conversation's log. A message needs text
// or at least one product attachment; a send already in flight for the same
// conversation rejects the new one rather than double-writing.
func (uc *ComposerUseCase) Send(ctx context.Context, uid string, input SendInput) (*entity.Message, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.ProductIDs) == 0 {
		return nil, errors.BadRequest("Message needs text or a product attachment", nil)
	}

	if allowed, wait := uc.rateLimiter.Allow(uid, "send_reply"); !allowed {
		logger.Warn("Send rate limited for %s, retry in %v", uid, wait)
		return nil, errors.TooManyRequests("Too many replies, slow down")
	}

	uc.mu.Lock()
	if uc.sending[input.ConversationID] {
		uc.mu.Unlock()
		return nil, errors.Conflict("A send is already in flight for this conversation")
	}
	uc.sending[input.ConversationID] = true
	uc.mu.Unlock()

	defer func() {
		uc.mu.Lock()
		delete(uc.sending, input.ConversationID)
		uc.mu.Unlock()
	}()

	message := &entity.Message{
		Sender:      entity.SenderHumanAgent,
		Text:        text,
		ProductRefs: input.ProductIDs,
	}

	if _, err := uc.log.Append(ctx, input.ShopID, input.ConversationID, message); err != nil {
		return nil, err
	}

	// Summary upkeep is best-effort; the log write already succeeded.
	if err := uc.conversations.RecordMessage(ctx, input.ShopID, input.ConversationID,
		preview(message), time.UnixMilli(message.Timestamp), false); err != nil {
		logger.Warn("Failed to update conversation summary for %s: %v", input.ConversationID, err)
	}

	return message, nil
}

// Suggest asks the reply-generation service for a draft based on the last few
// messages of the active conversation. Concurrent requests for the same
// conversation are coalesced into one call.
func (uc *ComposerUseCase) Suggest(ctx context.Context, uid, conversationID string) (string, error) {
	if allowed, wait := uc.rateLimiter.Allow(uid, "suggest_reply"); !allowed {
		logger.Warn("Suggestion rate limited for %s, retry in %v", uid, wait)
		return "", errors.TooManyRequests("Too many suggestion requests, slow down")
	}

	reply, err, _ := uc.suggestions.Do(conversationID, func() (interface{}, error) {
		_, activeID, ok := uc.stream.Active()
		if !ok || activeID != conversationID {
			return "", errors.BadRequest("Conversation is not active", nil)
		}

		history := uc.stream.Recent(suggestionContextSize)
		if len(history) == 0 {
			return "", errors.BadRequest("Nothing to suggest a reply for", nil)
		}

		return uc.generator.Generate(ctx, history)
	})
	if err != nil {
		return "", err
	}

	return reply.(string), nil
}

func preview(message *entity.Message) string {
	if message.Text != "" {
		return message.Text
	}
	if n := len(message.ProductRefs); n == 1 {
		return "Shared a product"
	} else if n > 1 {
		return fmt.Sprintf("Shared %d products", n)
	}
	return ""
}
