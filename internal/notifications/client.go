package notifications

import (
	"time"

	"chatapp/internal/middleware"
	"chatapp/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 16384
	sendBuffer     = 256
)

var (
	dropNotice     = mustEncode(Event{Event: EventMessagesDropped, Data: map[string]string{"reason": "buffer_full"}})
	goingAwayFrame = websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")
)

// Client is the middleman between one websocket connection and the Hub.
type Client struct {
	hub *Hub

	Conn   *websocket.Conn
	Send   chan []byte
	UserID string

	// IncomingHandler receives every text frame read from the peer.
	IncomingHandler func(*Client, []byte)

	// closeFrame is written by WritePump once Send is closed. Set before the close.
	closeFrame []byte
}

// NewClient creates a client that is not yet attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// ReadPump reads frames until the peer goes away, then detaches the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		msgType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				middleware.Logger.Warn("websocket read failed", "user_id", c.UserID, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if c.IncomingHandler != nil {
			c.IncomingHandler(c, message)
		}
	}
}

// WritePump drains Send to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				frame := c.closeFrame
				if frame == nil {
					frame = []byte{}
				}
				_ = c.Conn.WriteMessage(websocket.CloseMessage, frame)
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues message without blocking. When the buffer is full the
// message is dropped and the client is told so it can re-fetch.
func (c *Client) TrySend(message []byte) {
	defer func() {
		// Send was closed by Unregister.
		if r := recover(); r != nil {
			observability.WebSocketDrops.Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.WebSocketDrops.Inc()
		middleware.Logger.Warn("websocket buffer full, dropped message", "user_id", c.UserID)
		select {
		case c.Send <- dropNotice:
		default:
		}
	}
}

// SendEvent encodes ev and queues it.
func (c *Client) SendEvent(ev Event) error {
	b, err := ev.Encode()
	if err != nil {
		return err
	}
	c.TrySend(b)
	return nil
}
