package repository

import (
	"context"
	"errors"

	"chatapp/internal/database"
	"chatapp/internal/models"

	"gorm.io/gorm"
)

// Dual-orientation predicates: a friendship or request between a and b may be
// stored either way round.
const (
	friendPairQuery  = "(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)"
	requestPairQuery = "(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)"
)

// FriendRepository defines persistence for friend requests and friendships.
type FriendRepository interface {
	FindRequestBetween(ctx context.Context, a, b string) (*models.FriendRequest, error)
	CreateRequest(ctx context.Context, req *models.FriendRequest) error
	DeleteRequest(ctx context.Context, senderID, receiverID string) error
	AcceptRequest(ctx context.Context, senderID, receiverID string) (*models.Friend, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
	DeleteFriendship(ctx context.Context, a, b string) error
	ListFriends(ctx context.Context, userID string) ([]models.User, error)
	ListIncomingRequests(ctx context.Context, userID string) ([]models.FriendRequest, error)
	ListSentRequests(ctx context.Context, userID string) ([]models.FriendRequest, error)
}

type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

// FindRequestBetween returns the pending request between a and b in either
// direction, or nil when there is none.
func (r *friendRepository) FindRequestBetween(ctx context.Context, a, b string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).Where(requestPairQuery, a, b, b, a).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// CreateRequest inserts req. A concurrent request between the same pair, in
// either direction, is rejected by the unordered pair index.
func (r *friendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	err := r.db.WithContext(ctx).Omit("Sender", "Receiver").Create(req).Error
	if err == nil {
		return nil
	}
	if !database.IsUniqueConstraintError(err) {
		return models.NewInternalError(err)
	}
	existing, findErr := r.FindRequestBetween(ctx, req.SenderID, req.ReceiverID)
	if findErr == nil && existing != nil && existing.SenderID != req.SenderID {
		return models.NewBadRequestError("This user has already sent you a friend request")
	}
	return models.NewBadRequestError("You have already sent friend request to this user")
}

func (r *friendRepository) DeleteRequest(ctx context.Context, senderID, receiverID string) error {
	return deleteRequest(r.db.WithContext(ctx), senderID, receiverID)
}

func deleteRequest(db *gorm.DB, senderID, receiverID string) error {
	res := db.Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).Delete(&models.FriendRequest{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Friend request")
	}
	return nil
}

// AcceptRequest consumes the sender->receiver request and stores the
// friendship with the receiver as user_id.
func (r *friendRepository) AcceptRequest(ctx context.Context, senderID, receiverID string) (*models.Friend, error) {
	friend := &models.Friend{UserID: receiverID, FriendID: senderID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteRequest(tx, senderID, receiverID); err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&models.Friend{}).
			Where(friendPairQuery, senderID, receiverID, receiverID, senderID).
			Count(&existing).Error; err != nil {
			return models.NewInternalError(err)
		}
		if existing > 0 {
			return models.NewBadRequestError("You are already friend with this user")
		}
		if err := tx.Omit("User", "FriendUser").Create(friend).Error; err != nil {
			if database.IsUniqueConstraintError(err) {
				return models.NewBadRequestError("You are already friend with this user")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return friend, nil
}

func (r *friendRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Friend{}).
		Where(friendPairQuery, a, b, b, a).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *friendRepository) DeleteFriendship(ctx context.Context, a, b string) error {
	res := r.db.WithContext(ctx).Where(friendPairQuery, a, b, b, a).Delete(&models.Friend{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Friend")
	}
	return nil
}

// ListFriends returns the users on the other side of every friendship row.
func (r *friendRepository) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN friends f ON (users.id = f.friend_id AND f.user_id = ?) OR (users.id = f.user_id AND f.friend_id = ?)", userID, userID).
		Order("users.name").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *friendRepository) ListIncomingRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("receiver_id = ?", userID).
		Preload("Sender").
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *friendRepository) ListSentRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("sender_id = ?", userID).
		Preload("Receiver").
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}
