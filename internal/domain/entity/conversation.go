package entity

import "time"

// Conversation is the sidebar summary of one customer session. The message
// buffer itself is owned by the stream manager; the remote log stays
// authoritative.
type Conversation struct {
	ID            string    `json:"id" firestore:"-"`
	CustomerLabel string    `json:"customer_label" firestore:"customerLabel"`
	IsEscalated   bool      `json:"is_escalated" firestore:"isEscalated"`
	LastMessage   string    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount   int       `json:"unread_count" firestore:"unreadCount"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt"`
}
