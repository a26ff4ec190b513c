package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"shopassist/pkg/logger"
)

// Client is one connected admin viewer of the support inbox.
type Client struct {
	ViewerID string
	UID      string
	Conn     *websocket.Conn
	Send     chan []byte
}

// Manager fans stream events out to connected viewers. The stream manager
// publishes merged-message batches, scroll-anchoring hints and resolver
// updates through SendToUser, addressed to the owning merchant's uid; a
// merchant may keep several viewers open at once.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.ViewerID] = client
				m.mutex.Unlock()
				logger.Info("Viewer connected: %s", client.ViewerID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if _, ok := m.clients[client.ViewerID]; ok {
					delete(m.clients, client.ViewerID)
					close(client.Send)
				}
				m.mutex.Unlock()
				logger.Info("Viewer disconnected: %s", client.ViewerID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToUser queues a message for every viewer authenticated as uid. Other
// merchants' viewers never see it.
func (m *Manager) SendToUser(uid string, message []byte) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, client := range m.clients {
		if client.UID != uid {
			continue
		}
		select {
		case client.Send <- message:
		default:
			// Slow consumer; drop the event rather than block the publisher.
			logger.Warn("Viewer %s send buffer full, dropping event", client.ViewerID)
		}
	}
}

// ReadPump drains (and ignores) inbound frames until the connection closes.
// The inbox protocol is one-directional; commands arrive over REST.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Viewer %s read error: %v", c.ViewerID, err)
			}
			break
		}
	}
}

// WritePump sends queued events to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("Viewer %s write error: %v", c.ViewerID, err)
			return
		}
	}
}
