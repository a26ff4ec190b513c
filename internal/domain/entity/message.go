package entity

// Sender values for Message.Sender.
const (
	SenderCustomer   = "customer"
	SenderAI         = "ai"
	SenderHumanAgent = "human-agent"
	SenderSystem     = "system"
)

// Message is one entry of a conversation's append-only log. Immutable once
// created; ID and Timestamp are assigned by the log at append time. ID is a
// push-generated key whose lexicographic order is arrival order, so sorting
// by ID and sorting by Timestamp agree.
type Message struct {
	ID          string   `json:"id" firestore:"-"`
	Sender      string   `json:"sender" firestore:"sender"`
	Text        string   `json:"text" firestore:"text"`
	Timestamp   int64    `json:"timestamp" firestore:"timestamp"`
	ProductRefs []string `json:"product_ids,omitempty" firestore:"product_ids,omitempty"`
}
