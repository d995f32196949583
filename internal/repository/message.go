package repository

import (
	"context"

	"chatapp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageLookup selects a message for a sender-only mutation.
type MessageLookup struct {
	ID       string
	SenderID string
	// PeerID is the receiver for direct messages or the group for group messages.
	PeerID string
	// LiveOnly excludes soft-deleted messages.
	LiveOnly bool
}

// MessageRepository defines persistence for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListBetween(ctx context.Context, a, b string) ([]models.Message, error)
	MarkRead(ctx context.Context, senderID, receiverID string) error
	FindForSender(ctx context.Context, q MessageLookup) (*models.Message, error)
	UpdateFlags(ctx context.Context, id string, fields map[string]any) (*models.Message, error)
	Delete(ctx context.Context, id string) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.get(ctx, msg.ID)
}

func (r *messageRepository) get(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("id = ?", id).
		First(&msg).Error; err != nil {
		return nil, mapFindError(err, "Message")
	}
	return &msg, nil
}

// ListBetween returns the live conversation between a and b, oldest first.
func (r *messageRepository) ListBetween(ctx context.Context, a, b string) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.db.WithContext(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND is_deleted = ?", a, b, b, a, false).
		Preload("Sender").
		Preload("Receiver").
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// MarkRead flags every message from senderID to receiverID as read.
func (r *messageRepository) MarkRead(ctx context.Context, senderID, receiverID string) error {
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		UpdateColumn("is_read", true).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) FindForSender(ctx context.Context, q MessageLookup) (*models.Message, error) {
	var msg models.Message
	tx := r.db.WithContext(ctx).Where("id = ? AND sender_id = ? AND receiver_id = ?", q.ID, q.SenderID, q.PeerID)
	if q.LiveOnly {
		tx = tx.Where("is_deleted = ?", false)
	}
	if err := tx.First(&msg).Error; err != nil {
		return nil, mapFindError(err, "Message")
	}
	return &msg, nil
}

func (r *messageRepository) UpdateFlags(ctx context.Context, id string, fields map[string]any) (*models.Message, error) {
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.get(ctx, id)
}

func (r *messageRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Message")
	}
	return nil
}
