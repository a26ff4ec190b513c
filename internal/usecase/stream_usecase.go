package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"shopassist/internal/domain/entity"
	"shopassist/internal/domain/repository"
	"shopassist/pkg/errors"
	"shopassist/pkg/logger"
)

// historyBatchSize is the page size for history fetches and the tail
// catch-up. It trades fetch frequency against payload size; correctness does
// not depend on it.
const historyBatchSize = 20

// StreamState is the lifecycle of the active conversation view.
type StreamState int

const (
	StateIdle StreamState = iota
	StateActivating
	StateLive
)

// StreamUseCase owns the live view of the one active conversation: the
// ordered message buffer, the tail subscription, and backward pagination.
// Tail merges and history merges may interleave arbitrarily; the
// dedup-by-id merge makes that safe. Every asynchronous completion carries
// the activation generation it was issued under and is discarded if the
// active conversation has changed since.
type StreamUseCase struct {
	log      repository.MessageLog
	resolver *ResolverUseCase
	sink     EventSink
	loc      *time.Location

	mu             sync.Mutex
	state          StreamState
	shopID         string
	conversationID string
	generation     uint64
	buffer         messageBuffer
	hasOlder       bool
	loadingOlder   bool
	tail           repository.TailHandle
}

func NewStreamUseCase(log repository.MessageLog, resolver *ResolverUseCase, sink EventSink) *StreamUseCase {
	uc := &StreamUseCase{
		log:      log,
		resolver: resolver,
		sink:     sink,
		loc:      time.Local,
	}
	resolver.OnUpdate(uc.onProductsResolved)
	return uc
}

// SetLocation sets the viewer's time zone used by the grouping projection.
func (uc *StreamUseCase) SetLocation(loc *time.Location) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.loc = loc
}

// streamEvent is the wire shape pushed to connected viewers.
type streamEvent struct {
	Type           string                  `json:"type"` // "messages", "history", "products"
	ConversationID string                  `json:"conversation_id"`
	Messages       []*entity.Message       `json:"messages,omitempty"`
	Appended       bool                    `json:"appended,omitempty"`
	InsertedAbove  int                     `json:"inserted_above,omitempty"`
	HasOlder       bool                    `json:"has_older,omitempty"`
	Products       []entity.ProductSummary `json:"products,omitempty"`
}

// Activate switches the view to conversationID: tears down any previous
// buffer and cache, opens the tail subscription, and enters Live. Messages
// older than the catch-up batch remain behind the hasOlder boundary.
func (uc *StreamUseCase) Activate(ctx context.Context, shopID, conversationID string) error {
	uc.mu.Lock()
	if uc.tail != nil {
		uc.tail.Release()
		uc.tail = nil
	}
	uc.generation++
	gen := uc.generation
	uc.state = StateActivating
	uc.shopID = shopID
	uc.conversationID = conversationID
	uc.buffer.reset()
	uc.hasOlder = true
	uc.loadingOlder = false
	uc.mu.Unlock()

	uc.resolver.Reset()

	handle, err := uc.log.Tail(ctx, shopID, conversationID, historyBatchSize)
	if err != nil {
		uc.mu.Lock()
		if gen == uc.generation {
			uc.state = StateIdle
		}
		uc.mu.Unlock()
		return err
	}

	uc.mu.Lock()
	if gen != uc.generation {
		// A newer activation won the race; this subscription is obsolete.
		uc.mu.Unlock()
		handle.Release()
		return nil
	}
	uc.tail = handle
	uc.state = StateLive
	uc.mu.Unlock()

	go uc.consumeTail(gen, handle)

	return nil
}

// Deactivate releases the tail subscription and discards all per-session
// state. In-flight history fetches and catalog fetches issued for the old
// conversation are silently discarded when they complete.
func (uc *StreamUseCase) Deactivate() {
	uc.mu.Lock()
	uc.generation++
	uc.state = StateIdle
	uc.shopID = ""
	uc.conversationID = ""
	uc.buffer.reset()
	uc.hasOlder = false
	uc.loadingOlder = false
	handle := uc.tail
	uc.tail = nil
	uc.mu.Unlock()

	if handle != nil {
		handle.Release()
	}
	uc.resolver.Reset()
}

func (uc *StreamUseCase) consumeTail(gen uint64, handle repository.TailHandle) {
	for batch := range handle.Events() {
		uc.mergeTailBatch(gen, batch)
	}
}

func (uc *StreamUseCase) mergeTailBatch(gen uint64, batch []*entity.Message) {
	uc.mu.Lock()
	if gen != uc.generation {
		uc.mu.Unlock()
		return
	}
	inserted := uc.buffer.merge(batch)
	shopID := uc.shopID
	conversationID := uc.conversationID
	uc.mu.Unlock()

	if len(inserted) == 0 {
		return
	}

	uc.resolver.Resolve(productRefs(inserted))

	uc.publish(shopID, streamEvent{
		Type:           "messages",
		ConversationID: conversationID,
		Messages:       inserted,
		Appended:       true,
	})
}

// LoadOlderResult tells the caller how much content was inserted above the
// previous top so the view can keep its scroll anchor fixed.
type LoadOlderResult struct {
	InsertedAbove int  `json:"inserted_above"`
	HasOlder      bool `json:"has_older"`
}

// LoadOlder pages one batch further into history. It is single-flight: a call
// while a fetch is outstanding, or after history is exhausted, is a no-op.
func (uc *StreamUseCase) LoadOlder(ctx context.Context) (*LoadOlderResult, error) {
	uc.mu.Lock()
	if uc.state != StateLive {
		uc.mu.Unlock()
		return nil, errors.BadRequest("No active conversation", nil)
	}
	if uc.loadingOlder || !uc.hasOlder {
		result := &LoadOlderResult{InsertedAbove: 0, HasOlder: uc.hasOlder}
		uc.mu.Unlock()
		return result, nil
	}
	uc.loadingOlder = true
	gen := uc.generation
	shopID := uc.shopID
	conversationID := uc.conversationID
	beforeID := uc.buffer.oldestID()
	uc.mu.Unlock()

	batch, err := uc.log.FetchOlderThan(ctx, shopID, conversationID, beforeID, historyBatchSize)

	uc.mu.Lock()
	if gen != uc.generation {
		// Conversation switched while the fetch was in flight.
		uc.mu.Unlock()
		return &LoadOlderResult{}, nil
	}
	uc.loadingOlder = false
	if err != nil {
		// State unchanged; the load-older affordance is immediately retryable.
		uc.mu.Unlock()
		return nil, err
	}

	inserted := uc.buffer.merge(batch)
	if len(batch) < historyBatchSize {
		uc.hasOlder = false
	}
	hasOlder := uc.hasOlder
	uc.mu.Unlock()

	if len(inserted) > 0 {
		uc.resolver.Resolve(productRefs(inserted))
	}

	uc.publish(shopID, streamEvent{
		Type:           "history",
		ConversationID: conversationID,
		Messages:       inserted,
		InsertedAbove:  len(inserted),
		HasOlder:       hasOlder,
	})

	return &LoadOlderResult{InsertedAbove: len(inserted), HasOlder: hasOlder}, nil
}

// Grouped projects the buffer into date-labelled groups with resolved product
// attachments. Recomputed on every call; holds no state of its own.
func (uc *StreamUseCase) Grouped() []MessageGroup {
	uc.mu.Lock()
	messages := uc.buffer.snapshot()
	loc := uc.loc
	uc.mu.Unlock()

	known := uc.resolver.Snapshot()

	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		view := MessageView{Message: msg}
		for _, ref := range msg.ProductRefs {
			if summary, ok := known[ref]; ok {
				view.Products = append(view.Products, summary)
			}
		}
		views = append(views, view)
	}

	return groupByDay(views, loc, time.Now())
}

// Recent returns the last n buffered messages, oldest first. The composer
// uses it to build AI suggestion context.
func (uc *StreamUseCase) Recent(n int) []*entity.Message {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.buffer.tail(n)
}

// Active reports the currently active conversation, if any.
func (uc *StreamUseCase) Active() (shopID, conversationID string, ok bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.shopID, uc.conversationID, uc.state == StateLive
}

// HasOlder reports whether history beyond the buffer remains unloaded.
func (uc *StreamUseCase) HasOlder() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.hasOlder
}

func (uc *StreamUseCase) onProductsResolved(resolved map[string]entity.ProductSummary) {
	uc.mu.Lock()
	shopID := uc.shopID
	conversationID := uc.conversationID
	uc.mu.Unlock()

	products := make([]entity.ProductSummary, 0, len(resolved))
	for _, summary := range resolved {
		products = append(products, summary)
	}

	uc.publish(shopID, streamEvent{
		Type:           "products",
		ConversationID: conversationID,
		Products:       products,
	})
}

// publish delivers an event to the merchant that owns the active
// conversation. The uid doubles as the shop id, so shopID addresses the
// right viewers.
func (uc *StreamUseCase) publish(shopID string, event streamEvent) {
	if uc.sink == nil || shopID == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode stream event: %v", err)
		return
	}
	uc.sink.SendToUser(shopID, payload)
}

func productRefs(messages []*entity.Message) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, msg := range messages {
		for _, ref := range msg.ProductRefs {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	return refs
}
