package notifications

import (
	"context"
	"runtime/debug"

	"chatapp/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// Notifier publishes events for users. With Redis it fans out through
// pub/sub so every instance's hub delivers; without Redis, or when a publish
// fails, it delivers to the local hub directly.
type Notifier struct {
	rdb   *redis.Client
	local *Hub
}

// NewNotifier creates a Notifier. Either argument may be nil.
func NewNotifier(rdb *redis.Client, local *Hub) *Notifier {
	return &Notifier{rdb: rdb, local: local}
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID string, payload []byte) error {
	if n.rdb != nil {
		err := n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
		if err == nil {
			return nil
		}
		if n.local == nil {
			return err
		}
		middleware.Logger.WarnContext(ctx, "notification publish failed, delivering locally",
			"user_id", userID, "error", err)
	}
	if n.local != nil {
		n.local.Broadcast(userID, payload)
	}
	return nil
}

// PublishEvent encodes and publishes a named event for userID.
func (n *Notifier) PublishEvent(ctx context.Context, userID, event string, data any) error {
	b, err := Event{Event: event, Data: data}.Encode()
	if err != nil {
		return err
	}
	return n.PublishUser(ctx, userID, b)
}

// StartPatternSubscriber subscribes to every user channel and calls onMessage
// for each payload until ctx is done. It is a no-op without Redis.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
