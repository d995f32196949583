// Package notifications delivers websocket events to connected users, locally
// and across instances through Redis pub/sub.
package notifications

import "encoding/json"

// Event names pushed to websocket clients.
const (
	EventGreeting              = "greeting"
	EventEcho                  = "echo"
	EventFriendRequestReceived = "friend_request.received"
	EventFriendRequestAccepted = "friend_request.accepted"
	EventMessageCreated        = "message.created"
	EventGroupMessageCreated   = "group_message.created"
	EventMessagesDropped       = "messages_dropped"
)

// GreetingText is sent to every client right after the upgrade.
const GreetingText = "Hello from server"

// Event is the frame format written to websocket clients.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Encode renders the event as a JSON frame.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// mustEncode is for events whose payload is always serializable.
func mustEncode(e Event) []byte {
	b, err := e.Encode()
	if err != nil {
		panic(err)
	}
	return b
}
