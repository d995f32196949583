package service

import (
	"context"

	"chatapp/internal/middleware"
	"chatapp/internal/models"
	"chatapp/internal/notifications"
	"chatapp/internal/observability"
	"chatapp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// GroupMessageService handles group messages and their read receipts.
type GroupMessageService struct {
	messages repository.GroupMessageRepository
	groups   repository.GroupRepository
	events   EventPublisher
	resolve  models.URLResolver
}

// NewGroupMessageService returns a GroupMessageService. events and resolve may be nil.
func NewGroupMessageService(messages repository.GroupMessageRepository, groups repository.GroupRepository, events EventPublisher, resolve models.URLResolver) *GroupMessageService {
	return &GroupMessageService{messages: messages, groups: groups, events: events, resolve: resolve}
}

// Authorize checks that the group exists and userID may post in it.
func (s *GroupMessageService) Authorize(ctx context.Context, groupID, userID string) error {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if models.IsNotFound(err) {
			return models.NewNotFoundMessage("Group not found or already deleted")
		}
		return err
	}
	member, err := s.groups.GetMembership(ctx, groupID, userID)
	if err != nil {
		if models.IsNotFound(err) {
			return models.NewForbiddenError("You are not a member of this group")
		}
		return err
	}
	if !Can(memberRole(member), CapSendGroupMessage) {
		return models.NewForbiddenError("You are not a member of this group")
	}
	return nil
}

func (s *GroupMessageService) Send(ctx context.Context, groupID, senderID, content string) (*models.GroupMessage, error) {
	text, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.Create(ctx, &models.GroupMessage{GroupID: groupID, SenderID: senderID, Message: text})
	if err != nil {
		return nil, err
	}
	msg.SyncReadBy()
	msg.Sender.ResolveAvatar(s.resolve)
	observability.MessagesSent.WithLabelValues("group").Inc()

	if s.events != nil {
		members, err := s.groups.MemberIDs(ctx, groupID)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "could not load group members for fan-out", "group_id", groupID, "error", err)
		} else {
			publish(ctx, s.events, notifications.EventGroupMessageCreated, msg, without(members, senderID)...)
		}
	}
	return msg, nil
}

// List returns the group's live messages oldest first. As a side effect the
// caller is recorded as a reader of every message they did not send, and
// each message's read state is recomputed against the current membership.
func (s *GroupMessageService) List(ctx context.Context, groupID, userID string) (msgs []models.GroupMessage, err error) {
	ctx, span := observability.StartSpan(ctx, "group_messages", "list", attribute.String("group.id", groupID))
	defer func() { observability.EndSpan(span, err) }()
	return s.list(ctx, groupID, userID)
}

func (s *GroupMessageService) list(ctx context.Context, groupID, userID string) ([]models.GroupMessage, error) {
	msgs, err := s.messages.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var unread []string
	for i := range msgs {
		if msgs[i].SenderID != userID && !msgs[i].HasReader(userID) {
			unread = append(unread, msgs[i].ID)
			msgs[i].Reads = append(msgs[i].Reads, models.GroupMessageRead{GroupMessageID: msgs[i].ID, MemberID: userID})
		}
	}
	if err := s.messages.AddReads(ctx, userID, unread); err != nil {
		return nil, err
	}

	memberIDs, err := s.groups.MemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	var nowRead, nowUnread []string
	for i := range msgs {
		read := IsFullyRead(&msgs[i], members)
		if read != msgs[i].IsRead {
			if read {
				nowRead = append(nowRead, msgs[i].ID)
			} else {
				nowUnread = append(nowUnread, msgs[i].ID)
			}
			msgs[i].IsRead = read
		}
		msgs[i].SyncReadBy()
		msgs[i].Sender.ResolveAvatar(s.resolve)
	}
	if err := s.messages.SetReadState(ctx, nowRead, true); err != nil {
		return nil, err
	}
	if err := s.messages.SetReadState(ctx, nowUnread, false); err != nil {
		return nil, err
	}

	if msgs == nil {
		msgs = []models.GroupMessage{}
	}
	return msgs, nil
}

// IsFullyRead reports whether every current member other than the sender has
// a read marker on msg. Markers from former members do not count, and a
// message with no other members is never read.
func IsFullyRead(msg *models.GroupMessage, members map[string]struct{}) bool {
	recipients := len(members)
	if _, ok := members[msg.SenderID]; ok {
		recipients--
	}
	if recipients <= 0 {
		return false
	}

	seen := make(map[string]struct{}, len(msg.Reads))
	for _, r := range msg.Reads {
		if r.MemberID == msg.SenderID {
			continue
		}
		if _, ok := members[r.MemberID]; ok {
			seen[r.MemberID] = struct{}{}
		}
	}
	return len(seen) == recipients
}

func (s *GroupMessageService) Edit(ctx context.Context, groupID, userID, messageID, content string) (*models.GroupMessage, error) {
	text, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, repository.MessageLookup{ID: messageID, SenderID: userID, PeerID: groupID, LiveOnly: true},
		"edit", map[string]any{"message": text, "is_edited": true})
}

func (s *GroupMessageService) SoftDelete(ctx context.Context, groupID, userID, messageID string) (*models.GroupMessage, error) {
	return s.mutate(ctx, repository.MessageLookup{ID: messageID, SenderID: userID, PeerID: groupID, LiveOnly: true},
		"soft_delete", map[string]any{"is_deleted": true, "is_edited": true})
}

func (s *GroupMessageService) Restore(ctx context.Context, groupID, userID, messageID string) (*models.GroupMessage, error) {
	return s.mutate(ctx, repository.MessageLookup{ID: messageID, SenderID: userID, PeerID: groupID},
		"restore", map[string]any{"is_deleted": false, "is_edited": true})
}

// Destroy hard-deletes the message and its read markers.
func (s *GroupMessageService) Destroy(ctx context.Context, groupID, userID, messageID string) error {
	msg, err := s.messages.FindForSender(ctx, repository.MessageLookup{ID: messageID, SenderID: userID, PeerID: groupID})
	if err != nil {
		return lookupError(err)
	}
	if err := s.messages.Delete(ctx, msg.ID); err != nil {
		return lookupError(err)
	}
	observability.MessageMutations.WithLabelValues("group", "destroy").Inc()
	return nil
}

func (s *GroupMessageService) mutate(ctx context.Context, q repository.MessageLookup, action string, fields map[string]any) (*models.GroupMessage, error) {
	msg, err := s.messages.FindForSender(ctx, q)
	if err != nil {
		return nil, lookupError(err)
	}
	updated, err := s.messages.UpdateFlags(ctx, msg.ID, fields)
	if err != nil {
		return nil, lookupError(err)
	}
	observability.MessageMutations.WithLabelValues("group", action).Inc()
	updated.SyncReadBy()
	updated.Sender.ResolveAvatar(s.resolve)
	return updated, nil
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
