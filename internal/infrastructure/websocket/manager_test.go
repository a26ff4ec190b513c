package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Events addressed to one merchant must never reach another merchant's
// viewer.
func TestSendToUserTargetsOneMerchant(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager()
	m.Start(ctx)

	merchantA := &Client{ViewerID: "viewer-a", UID: "merchant-a", Send: make(chan []byte, 4)}
	merchantB := &Client{ViewerID: "viewer-b", UID: "merchant-b", Send: make(chan []byte, 4)}
	m.Register <- merchantA
	m.Register <- merchantB

	require.Eventually(t, func() bool {
		m.SendToUser("merchant-a", []byte("event"))
		return len(merchantA.Send) > 0
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "event", string(<-merchantA.Send))
	assert.Empty(t, merchantB.Send)
}

// A merchant with several tabs open gets the event on every connection.
func TestSendToUserReachesEveryViewerOfMerchant(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager()
	m.Start(ctx)

	tab1 := &Client{ViewerID: "tab-1", UID: "merchant-a", Send: make(chan []byte, 16)}
	tab2 := &Client{ViewerID: "tab-2", UID: "merchant-a", Send: make(chan []byte, 16)}
	m.Register <- tab1
	m.Register <- tab2

	require.Eventually(t, func() bool {
		m.SendToUser("merchant-a", []byte("event"))
		return len(tab1.Send) > 0 && len(tab2.Send) > 0
	}, time.Second, 5*time.Millisecond)
}

func TestSendToUserDoesNotBlockOnSlowViewer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager()
	m.Start(ctx)

	client := &Client{ViewerID: "viewer-a", UID: "merchant-a", Send: make(chan []byte, 1)}
	m.Register <- client

	require.Eventually(t, func() bool {
		m.SendToUser("merchant-a", []byte("event"))
		return len(client.Send) == 1
	}, time.Second, 5*time.Millisecond)

	// Buffer is full; the call must drop the event instead of blocking.
	m.SendToUser("merchant-a", []byte("overflow"))
	assert.Len(t, client.Send, 1)
}
