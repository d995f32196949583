// Package service implements the business rules behind every API operation.
package service

import (
	"context"

	"chatapp/internal/middleware"
)

// EventPublisher pushes live events to a user's websocket connections.
type EventPublisher interface {
	PublishEvent(ctx context.Context, userID, event string, data any) error
}

// publish delivers ev to each user. Delivery failures never fail the request.
func publish(ctx context.Context, pub EventPublisher, event string, data any, userIDs ...string) {
	if pub == nil {
		return
	}
	for _, id := range userIDs {
		if err := pub.PublishEvent(ctx, id, event, data); err != nil {
			middleware.Logger.WarnContext(ctx, "event delivery failed",
				"event", event, "recipient", id, "error", err)
		}
	}
}
