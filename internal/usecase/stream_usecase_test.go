package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopassist/internal/domain/entity"
	"shopassist/internal/domain/repository"
)

type fakeTailHandle struct {
	events   chan []*entity.Message
	released chan struct{}
	once     sync.Once
}

func newFakeTailHandle() *fakeTailHandle {
	return &fakeTailHandle{
		events:   make(chan []*entity.Message, 16),
		released: make(chan struct{}),
	}
}

func (h *fakeTailHandle) Events() <-chan []*entity.Message { return h.events }

func (h *fakeTailHandle) Release() {
	h.once.Do(func() {
		close(h.released)
		close(h.events)
	})
}

func (h *fakeTailHandle) emit(messages ...*entity.Message) {
	h.events <- messages
}

type fakeMessageLog struct {
	mu         sync.Mutex
	handles    []*fakeTailHandle
	olderPages [][]*entity.Message
	fetchCalls int
	fetchGate  chan struct{} // when set, FetchOlderThan blocks until closed
	fetchSeen  chan struct{} // signalled once per FetchOlderThan entry
}

func (f *fakeMessageLog) Tail(ctx context.Context, shopID, conversationID string, limit int) (repository.TailHandle, error) {
	handle := newFakeTailHandle()
	f.mu.Lock()
	f.handles = append(f.handles, handle)
	f.mu.Unlock()
	return handle, nil
}

func (f *fakeMessageLog) FetchOlderThan(ctx context.Context, shopID, conversationID, beforeID string, limit int) ([]*entity.Message, error) {
	f.mu.Lock()
	f.fetchCalls++
	seen := f.fetchSeen
	gate := f.fetchGate
	f.mu.Unlock()

	if seen != nil {
		seen <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.olderPages) == 0 {
		return nil, nil
	}
	page := f.olderPages[0]
	f.olderPages = f.olderPages[1:]
	return page, nil
}

func (f *fakeMessageLog) Append(ctx context.Context, shopID, conversationID string, message *entity.Message) (string, error) {
	message.ID = "appended"
	return message.ID, nil
}

func (f *fakeMessageLog) latestHandle() *fakeTailHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handles[len(f.handles)-1]
}

func (f *fakeMessageLog) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func msgs(ids ...string) []*entity.Message {
	out := make([]*entity.Message, len(ids))
	for i, id := range ids {
		out[i] = msg(id)
	}
	return out
}

type fakeSink struct {
	mu   sync.Mutex
	uids []string
}

func (f *fakeSink) SendToUser(uid string, message []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uids = append(f.uids, uid)
}

func (f *fakeSink) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uids...)
}

func newTestStream(t *testing.T, log *fakeMessageLog) *StreamUseCase {
	t.Helper()
	resolver := NewResolverUseCase(catalogWith())
	return NewStreamUseCase(log, resolver, nil)
}

func bufferIDs(uc *StreamUseCase) []string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return ids(uc.buffer.snapshot())
}

// Scenario: empty conversation, activation, catch-up delivers five messages.
func TestActivateMergesCatchUpBatch(t *testing.T) {
	log := &fakeMessageLog{}
	stream := newTestStream(t, log)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c1"))
	log.latestHandle().emit(msgs("m1", "m2", "m3", "m4", "m5")...)

	require.Eventually(t, func() bool {
		return len(bufferIDs(stream)) == 5
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"m1", "m2", "m3", "m4", "m5"}, bufferIDs(stream))
	assert.True(t, stream.HasOlder())
}

// The open request's context ends as soon as its response is written; the
// tail must keep delivering until the conversation is switched or closed.
func TestTailSurvivesActivationContextEnding(t *testing.T) {
	log := &fakeMessageLog{}
	stream := newTestStream(t, log)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, stream.Activate(ctx, "shop1", "c1"))
	cancel()

	log.latestHandle().emit(msgs("m1", "m2")...)

	require.Eventually(t, func() bool {
		return len(bufferIDs(stream)) == 2
	}, time.Second, 5*time.Millisecond)

	_, _, active := stream.Active()
	assert.True(t, active)
}

// Stream events go to the merchant that owns the active conversation, never
// to other merchants' viewers.
func TestStreamEventsAddressOwningMerchant(t *testing.T) {
	log := &fakeMessageLog{}
	sink := &fakeSink{}
	stream := NewStreamUseCase(log, NewResolverUseCase(catalogWith()), sink)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c1"))
	log.latestHandle().emit(msgs("m1", "m2")...)

	require.Eventually(t, func() bool {
		return len(sink.sentTo()) > 0
	}, time.Second, 5*time.Millisecond)

	for _, uid := range sink.sentTo() {
		assert.Equal(t, "shop1", uid)
	}
}

// Scenario: the tail re-delivers a message already merged from history,
// followed by a genuinely new one.
func TestTailRedeliveryIsDeduplicated(t *testing.T) {
	log := &fakeMessageLog{}
	stream := newTestStream(t, log)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c1"))
	handle := log.latestHandle()

	handle.emit(msgs("m28", "m29")...)
	handle.emit(msgs("m29", "m30")...)

	require.Eventually(t, func() bool {
		return len(bufferIDs(stream)) == 3
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"m28", "m29", "m30"}, bufferIDs(stream))
}

// Scenario: a short history page flips hasOlder and later loads are no-ops.
func TestLoadOlderExhaustsHistory(t *testing.T) {
	log := &fakeMessageLog{}
	stream := newTestStream(t, log)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c1"))

	var catchUp []*entity.Message
	for i := 10; i <= 29; i++ {
		catchUp = append(catchUp, msg(fmt.Sprintf("m%02d", i)))
	}
	log.latestHandle().emit(catchUp...)
	require.Eventually(t, func() bool {
		return len(bufferIDs(stream)) == 20
	}, time.Second, 5*time.Millisecond)

	log.mu.Lock()
	log.olderPages = [][]*entity.Message{msgs("m01", "m02", "m03", "m04", "m05", "m06", "m07", "m08", "m09")}
	log.mu.Unlock()

	result, err := stream.LoadOlder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, result.InsertedAbove)
	assert.False(t, result.HasOlder)

	require.Len(t, bufferIDs(stream), 29)
	assert.Equal(t, "m01", bufferIDs(stream)[0])
	assert.False(t, stream.HasOlder())

	// History is exhausted; no further fetch may be issued.
	before := log.fetchCount()
	result, err = stream.LoadOlder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.InsertedAbove)
	assert.Equal(t, before, log.fetchCount())
}

// Two overlapping LoadOlder calls result in exactly one history fetch.
func TestLoadOlderIsSingleFlight(t *testing.T) {
	log := &fakeMessageLog{
		fetchGate: make(chan struct{}),
		fetchSeen: make(chan struct{}, 2),
	}
	stream := newTestStream(t, log)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c1"))
	log.latestHandle().emit(msgs("m10")...)
	require.Eventually(t, func() bool {
		return len(bufferIDs(stream)) == 1
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		stream.LoadOlder(context.Background())
	}()

	<-log.fetchSeen // first fetch is in flight

	result, err := stream.LoadOlder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.InsertedAbove)

	close(log.fetchGate)
	<-done

	assert.Equal(t, 1, log.fetchCount())
}

// A history fetch completing after the conversation switched must not leak
// into the new conversation's buffer.
func TestStaleHistoryFetchIsDiscarded(t *testing.T) {
	log := &fakeMessageLog{
		fetchGate: make(chan struct{}),
		fetchSeen: make(chan struct{}, 1),
	}
	stream := newTestStream(t, log)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c1"))
	log.latestHandle().emit(msgs("m10")...)
	require.Eventually(t, func() bool {
		return len(bufferIDs(stream)) == 1
	}, time.Second, 5*time.Millisecond)

	log.mu.Lock()
	log.olderPages = [][]*entity.Message{msgs("m01", "m02")}
	log.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		stream.LoadOlder(context.Background())
	}()
	<-log.fetchSeen

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c2"))
	log.latestHandle().emit(msgs("n1")...)

	close(log.fetchGate)
	<-done

	require.Eventually(t, func() bool {
		return len(bufferIDs(stream)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"n1"}, bufferIDs(stream))
}

// Tail events from a released subscription must not land on the next
// conversation's state.
func TestActivateReleasesPreviousTail(t *testing.T) {
	log := &fakeMessageLog{}
	stream := newTestStream(t, log)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c1"))
	first := log.latestHandle()
	first.emit(msgs("m1")...)
	require.Eventually(t, func() bool {
		return len(bufferIDs(stream)) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c2"))

	select {
	case <-first.released:
	case <-time.After(time.Second):
		t.Fatal("previous tail handle was not released")
	}

	assert.Empty(t, bufferIDs(stream))
	assert.True(t, stream.HasOlder())
}

func TestDeactivateTearsDownSession(t *testing.T) {
	log := &fakeMessageLog{}
	stream := newTestStream(t, log)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c1"))
	handle := log.latestHandle()
	handle.emit(msgs("m1", "m2")...)
	require.Eventually(t, func() bool {
		return len(bufferIDs(stream)) == 2
	}, time.Second, 5*time.Millisecond)

	stream.Deactivate()

	select {
	case <-handle.released:
	case <-time.After(time.Second):
		t.Fatal("tail handle was not released")
	}

	assert.Empty(t, bufferIDs(stream))
	_, _, active := stream.Active()
	assert.False(t, active)

	_, err := stream.LoadOlder(context.Background())
	assert.Error(t, err)
}

// New product refs from merged messages flow into the resolver as one
// coalesced batch per update.
func TestMergeFeedsProductRefsToResolver(t *testing.T) {
	catalog := catalogWith("a", "b", "c")
	resolver := NewResolverUseCase(catalog)
	log := &fakeMessageLog{}
	stream := NewStreamUseCase(log, resolver, nil)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c1"))

	batch := msgs("m1", "m2", "m3")
	batch[0].ProductRefs = []string{"a", "b"}
	batch[1].ProductRefs = []string{"b", "c"}
	batch[2].ProductRefs = []string{"c"}
	log.latestHandle().emit(batch...)

	require.Eventually(t, func() bool {
		return len(resolver.Snapshot()) == 3
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, 1, catalog.callCount())
	assert.ElementsMatch(t, []string{"a", "b", "c"}, catalog.calls[0])
}

func TestGroupedAttachesResolvedProducts(t *testing.T) {
	catalog := catalogWith("a")
	resolver := NewResolverUseCase(catalog)
	log := &fakeMessageLog{}
	stream := NewStreamUseCase(log, resolver, nil)
	stream.SetLocation(time.UTC)

	require.NoError(t, stream.Activate(context.Background(), "shop1", "c1"))

	m := msg("m1")
	m.Timestamp = time.Now().UnixMilli()
	m.ProductRefs = []string{"a", "missing"}
	log.latestHandle().emit(m)

	require.Eventually(t, func() bool {
		groups := stream.Grouped()
		return len(groups) == 1 && len(groups[0].Messages[0].Products) == 1
	}, time.Second, 5*time.Millisecond)

	groups := stream.Grouped()
	assert.Equal(t, "Today", groups[0].DateLabel)
	assert.Equal(t, "Product a", groups[0].Messages[0].Products[0].Title)
}
