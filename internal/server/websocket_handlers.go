package server

import (
	"chatapp/internal/middleware"
	"chatapp/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketUpgrade rejects plain HTTP requests to the websocket endpoint.
func (s *Server) WebsocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}
}

// WebsocketHandler greets the client, echoes its text frames and delivers
// the caller's domain events through the hub.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			_ = conn.Close()
			return
		}

		client := notifications.NewClient(s.hub, conn, userID)
		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			_ = c.SendEvent(notifications.Event{Event: notifications.EventEcho, Data: string(message)})
		}

		// Queued before attaching so the greeting is always the first frame.
		_ = client.SendEvent(notifications.Event{Event: notifications.EventGreeting, Data: notifications.GreetingText})

		if err := s.hub.Attach(client); err != nil {
			middleware.Logger.Warn("websocket rejected", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
