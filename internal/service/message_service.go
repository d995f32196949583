package service

import (
	"context"
	"strings"

	"chatapp/internal/models"
	"chatapp/internal/notifications"
	"chatapp/internal/observability"
	"chatapp/internal/repository"
	"chatapp/internal/validation"
)

const msgMessageNotFound = "Message not found or already deleted"

// ContentInput is the body of a send or edit request.
type ContentInput struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

func validateContent(content string) (string, error) {
	in := ContentInput{Content: strings.TrimSpace(content)}
	if err := validation.Struct(in); err != nil {
		return "", err
	}
	return in.Content, nil
}

// lookupError rewrites a repository miss into the client-facing message.
func lookupError(err error) error {
	if models.IsNotFound(err) {
		return models.NewNotFoundMessage(msgMessageNotFound)
	}
	return err
}

// MessageService handles direct messages between friends.
type MessageService struct {
	messages repository.MessageRepository
	friends  repository.FriendRepository
	events   EventPublisher
	resolve  models.URLResolver
}

// NewMessageService returns a MessageService. events and resolve may be nil.
func NewMessageService(messages repository.MessageRepository, friends repository.FriendRepository, events EventPublisher, resolve models.URLResolver) *MessageService {
	return &MessageService{messages: messages, friends: friends, events: events, resolve: resolve}
}

// Authorize checks that userID may message peerID.
func (s *MessageService) Authorize(ctx context.Context, userID, peerID string) error {
	if userID == peerID {
		return models.NewForbiddenError("You cannot send message to yourself")
	}
	ok, err := s.friends.AreFriends(ctx, userID, peerID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("You cannot send message to this user because you are not friend with this user")
	}
	return nil
}

func (s *MessageService) Send(ctx context.Context, senderID, receiverID, content string) (*models.Message, error) {
	text, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.Create(ctx, &models.Message{SenderID: senderID, ReceiverID: receiverID, Message: text})
	if err != nil {
		return nil, err
	}

	observability.MessagesSent.WithLabelValues("direct").Inc()
	s.resolveUsers(msg)
	publish(ctx, s.events, notifications.EventMessageCreated, msg, receiverID)
	return msg, nil
}

// List marks the friend's messages to userID as read, then returns the live
// conversation oldest first.
func (s *MessageService) List(ctx context.Context, userID, friendID string) ([]models.Message, error) {
	if err := s.messages.MarkRead(ctx, friendID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListBetween(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		s.resolveUsers(&msgs[i])
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

func (s *MessageService) Edit(ctx context.Context, userID, friendID, messageID, content string) (*models.Message, error) {
	text, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, repository.MessageLookup{ID: messageID, SenderID: userID, PeerID: friendID, LiveOnly: true},
		"edit", map[string]any{"message": text, "is_edited": true})
}

func (s *MessageService) SoftDelete(ctx context.Context, userID, friendID, messageID string) (*models.Message, error) {
	return s.mutate(ctx, repository.MessageLookup{ID: messageID, SenderID: userID, PeerID: friendID, LiveOnly: true},
		"soft_delete", map[string]any{"is_deleted": true})
}

func (s *MessageService) Restore(ctx context.Context, userID, friendID, messageID string) (*models.Message, error) {
	return s.mutate(ctx, repository.MessageLookup{ID: messageID, SenderID: userID, PeerID: friendID},
		"restore", map[string]any{"is_deleted": false, "is_edited": true})
}

// Destroy hard-deletes the message.
func (s *MessageService) Destroy(ctx context.Context, userID, friendID, messageID string) error {
	msg, err := s.messages.FindForSender(ctx, repository.MessageLookup{ID: messageID, SenderID: userID, PeerID: friendID})
	if err != nil {
		return lookupError(err)
	}
	if err := s.messages.Delete(ctx, msg.ID); err != nil {
		return lookupError(err)
	}
	observability.MessageMutations.WithLabelValues("direct", "destroy").Inc()
	return nil
}

func (s *MessageService) mutate(ctx context.Context, q repository.MessageLookup, action string, fields map[string]any) (*models.Message, error) {
	msg, err := s.messages.FindForSender(ctx, q)
	if err != nil {
		return nil, lookupError(err)
	}
	updated, err := s.messages.UpdateFlags(ctx, msg.ID, fields)
	if err != nil {
		return nil, lookupError(err)
	}
	observability.MessageMutations.WithLabelValues("direct", action).Inc()
	s.resolveUsers(updated)
	return updated, nil
}

func (s *MessageService) resolveUsers(m *models.Message) {
	m.Sender.ResolveAvatar(s.resolve)
	m.Receiver.ResolveAvatar(s.resolve)
}
