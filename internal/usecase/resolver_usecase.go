package usecase

import (
	"context"
	"sync"

	"shopassist/internal/domain/entity"
	"shopassist/pkg/logger"
)

// ResolverUseCase caches product summaries referenced by messages. Misses are
// coalesced into a single batched catalog fetch: one call per update cycle
// for the union of missing ids, never one call per message. Entries are kept
// for the whole session and cleared on session switch.
type ResolverUseCase struct {
	catalog ProductCatalog

	mu         sync.Mutex
	known      map[string]entity.ProductSummary
	requested  map[string]bool // every id ever enqueued this session
	queue      []string        // enqueued, not yet handed to a fetch
	inFlight   bool
	generation uint64
	onUpdate   func(resolved map[string]entity.ProductSummary)
}

// Resolution is the synchronous answer to a Resolve call. Pending ids have a
// batch fetch scheduled (or already running).
type Resolution struct {
	Known   map[string]entity.ProductSummary
	Pending []string
}

func NewResolverUseCase(catalog ProductCatalog) *ResolverUseCase {
	return &ResolverUseCase{
		catalog:   catalog,
		known:     make(map[string]entity.ProductSummary),
		requested: make(map[string]bool),
	}
}

// OnUpdate registers the callback invoked after a batch fetch completes with
// the newly resolved entries. The stream manager uses it to re-project
// without re-fetching.
func (r *ResolverUseCase) OnUpdate(cb func(resolved map[string]entity.ProductSummary)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdate = cb
}

// Resolve returns whatever is cached for ids and enqueues the rest for one
// coalesced batch fetch. Repeated input ids collapse to one pending entry; an
// id already in flight is never re-requested; an id whose fetch failed stays
// pending for the rest of the session.
func (r *ResolverUseCase) Resolve(ids []string) Resolution {
	res := Resolution{Known: make(map[string]entity.ProductSummary)}
	seen := make(map[string]bool, len(ids))

	r.mu.Lock()
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if summary, ok := r.known[id]; ok {
			res.Known[id] = summary
			continue
		}
		res.Pending = append(res.Pending, id)
		if !r.requested[id] {
			r.requested[id] = true
			r.queue = append(r.queue, id)
		}
	}

	start := len(r.queue) > 0 && !r.inFlight
	if start {
		r.inFlight = true
	}
	r.mu.Unlock()

	if start {
		go r.fetchLoop()
	}

	return res
}

// Snapshot returns a copy of everything resolved so far.
func (r *ResolverUseCase) Snapshot() map[string]entity.ProductSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]entity.ProductSummary, len(r.known))
	for id, summary := range r.known {
		out[id] = summary
	}
	return out
}

// Reset discards the cache and any queued work. In-flight fetches for the old
// session are discarded when they complete.
func (r *ResolverUseCase) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	r.known = make(map[string]entity.ProductSummary)
	r.requested = make(map[string]bool)
	r.queue = nil
	r.inFlight = false
}

func (r *ResolverUseCase) fetchLoop() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.inFlight = false
			r.mu.Unlock()
			return
		}
		batch := r.queue
		r.queue = nil
		gen := r.generation
		r.mu.Unlock()

		products, err := r.catalog.FetchByIDs(context.Background(), batch)

		r.mu.Lock()
		if gen != r.generation {
			// Session switched while the fetch was in flight.
			r.mu.Unlock()
			return
		}
		if err != nil {
			// Failed ids stay requested-but-unknown: pending for the session,
			// no automatic retry. Messages render without attachments.
			logger.Warn("Product batch fetch failed for %d ids: %v", len(batch), err)
			r.mu.Unlock()
			continue
		}

		resolved := make(map[string]entity.ProductSummary, len(products))
		for _, summary := range products {
			r.known[summary.ID] = summary
			resolved[summary.ID] = summary
		}
		cb := r.onUpdate
		r.mu.Unlock()

		if cb != nil && len(resolved) > 0 {
			cb(resolved)
		}
	}
}
