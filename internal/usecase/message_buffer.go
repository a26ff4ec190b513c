package usecase

import (
	"sort"

	"shopassist/internal/domain/entity"
)

// messageBuffer is the in-memory, strictly ordered, duplicate-free view of
// the active conversation. It always covers a contiguous range of the remote
// log between the oldest message loaded and the newest observed; the only gap
// is the tracked "older messages not yet loaded" boundary.
type messageBuffer struct {
	messages []*entity.Message
}

// insert places msg at its order-preserving position and reports whether it
// was new. Tail events normally arrive in increasing order, which makes this
// an append in practice, but the search never assumes that.
func (b *messageBuffer) insert(msg *entity.Message) bool {
	i := sort.Search(len(b.messages), func(i int) bool {
		return b.messages[i].ID >= msg.ID
	})
	if i < len(b.messages) && b.messages[i].ID == msg.ID {
		return false
	}

	b.messages = append(b.messages, nil)
	copy(b.messages[i+1:], b.messages[i:])
	b.messages[i] = msg
	return true
}

// merge inserts every message of batch, dropping duplicates, and returns the
// messages that were actually new in buffer order.
func (b *messageBuffer) merge(batch []*entity.Message) []*entity.Message {
	var inserted []*entity.Message
	for _, msg := range batch {
		if b.insert(msg) {
			inserted = append(inserted, msg)
		}
	}
	return inserted
}

func (b *messageBuffer) len() int {
	return len(b.messages)
}

func (b *messageBuffer) oldestID() string {
	if len(b.messages) == 0 {
		return ""
	}
	return b.messages[0].ID
}

// snapshot returns a copy of the buffer; callers may hold it without locking.
func (b *messageBuffer) snapshot() []*entity.Message {
	out := make([]*entity.Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// tail returns the last n messages, oldest first.
func (b *messageBuffer) tail(n int) []*entity.Message {
	if n > len(b.messages) {
		n = len(b.messages)
	}
	out := make([]*entity.Message, n)
	copy(out, b.messages[len(b.messages)-n:])
	return out
}

func (b *messageBuffer) reset() {
	b.messages = nil
}
