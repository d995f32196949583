package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"

	"chatapp/internal/middleware"
	"chatapp/internal/observability"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub maps user IDs to their open websocket clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Client]struct{})}
}

// Attach adds an existing client, enforcing per-user and global limits.
func (h *Hub) Attach(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return ErrServerFull
	}
	m, ok := h.conns[client.UserID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[client.UserID] = m
	}
	if len(m) >= maxConnsPerUser {
		return ErrUserFull
	}

	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()
	return nil
}

// Unregister detaches client and closes its send channel. It is safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.totalConns--
	observability.WebSocketConnections.Dec()
	close(client.Send)
}

// Broadcast sends message to every connection of userID.
func (h *Hub) Broadcast(userID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		c.TrySend(message)
	}
}

// ConnectionCount returns the number of attached clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// StartWiring subscribes n to the per-user channels and forwards every
// payload to the matching local connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := strings.CutPrefix(channel, userChannelPrefix)
		if !ok || userID == "" {
			middleware.Logger.Warn("invalid notification channel", "channel", channel)
			return
		}
		h.Broadcast(userID, []byte(payload))
	})
}

// Shutdown detaches every client. Each WritePump then sends a going-away
// close frame and closes its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.conns {
		for client := range clients {
			client.closeFrame = goingAwayFrame
			close(client.Send)
			observability.WebSocketConnections.Dec()
		}
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
