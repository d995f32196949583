package service

import (
	"context"

	"chatapp/internal/models"
	"chatapp/internal/notifications"
	"chatapp/internal/observability"
	"chatapp/internal/repository"
)

// FriendService provides friend-request and friendship business logic.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	events     EventPublisher
	resolve    models.URLResolver
}

// NewFriendService returns a new FriendService. events and resolve may be nil.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository, events EventPublisher, resolve models.URLResolver) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		events:     events,
		resolve:    resolve,
	}
}

// SendRequest creates a request from senderID to receiverID.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, models.NewBadRequestError("You cannot send friend request to yourself")
	}

	existing, err := s.friendRepo.FindRequestBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.SenderID == senderID {
			return nil, models.NewBadRequestError("You have already sent friend request to this user")
		}
		return nil, models.NewBadRequestError("This user has already sent you a friend request")
	}

	friends, err := s.friendRepo.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, models.NewBadRequestError("You are already friend with this user")
	}

	req := &models.FriendRequest{SenderID: senderID, ReceiverID: receiverID}
	if err := s.friendRepo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	observability.FriendRequests.WithLabelValues("sent").Inc()
	publish(ctx, s.events, notifications.EventFriendRequestReceived, req, receiverID)
	return req, nil
}

// AcceptRequest turns the request senderID -> receiverID into a friendship.
func (s *FriendService) AcceptRequest(ctx context.Context, receiverID, senderID string) (*models.Friend, error) {
	friend, err := s.friendRepo.AcceptRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	observability.FriendRequests.WithLabelValues("accepted").Inc()
	publish(ctx, s.events, notifications.EventFriendRequestAccepted, friend, senderID)
	return friend, nil
}

// RejectRequest deletes the request senderID -> receiverID.
func (s *FriendService) RejectRequest(ctx context.Context, receiverID, senderID string) error {
	if err := s.friendRepo.DeleteRequest(ctx, senderID, receiverID); err != nil {
		return err
	}
	observability.FriendRequests.WithLabelValues("rejected").Inc()
	return nil
}

// CancelRequest deletes the caller's own request senderID -> receiverID.
func (s *FriendService) CancelRequest(ctx context.Context, senderID, receiverID string) error {
	if err := s.friendRepo.DeleteRequest(ctx, senderID, receiverID); err != nil {
		return err
	}
	observability.FriendRequests.WithLabelValues("cancelled").Inc()
	return nil
}

// Unfriend removes the friendship whichever way round it was stored.
func (s *FriendService) Unfriend(ctx context.Context, userID, otherID string) error {
	return s.friendRepo.DeleteFriendship(ctx, userID, otherID)
}

// AreFriends reports whether a friendship exists in either orientation.
func (s *FriendService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	return s.friendRepo.AreFriends(ctx, a, b)
}

// List returns friends plus incoming and outgoing requests.
func (s *FriendService) List(ctx context.Context, userID string) (*models.FriendList, error) {
	friends, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	incoming, err := s.friendRepo.ListIncomingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	sent, err := s.friendRepo.ListSentRequests(ctx, userID)
	if err != nil {
		return nil, err
	}

	models.ResolveAvatars(friends, s.resolve)
	for i := range incoming {
		incoming[i].Sender.ResolveAvatar(s.resolve)
	}
	for i := range sent {
		sent[i].Receiver.ResolveAvatar(s.resolve)
	}

	if friends == nil {
		friends = []models.User{}
	}
	if incoming == nil {
		incoming = []models.FriendRequest{}
	}
	if sent == nil {
		sent = []models.FriendRequest{}
	}
	return &models.FriendList{Friends: friends, FriendRequests: incoming, SentRequests: sent}, nil
}
