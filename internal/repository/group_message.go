package repository

import (
	"context"
	"time"

	"chatapp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupMessageRepository defines persistence for group messages and their read-by sets.
type GroupMessageRepository interface {
	Create(ctx context.Context, msg *models.GroupMessage) (*models.GroupMessage, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.GroupMessage, error)
	AddReads(ctx context.Context, memberID string, messageIDs []string) error
	SetReadState(ctx context.Context, ids []string, isRead bool) error
	FindForSender(ctx context.Context, q MessageLookup) (*models.GroupMessage, error)
	UpdateFlags(ctx context.Context, id string, fields map[string]any) (*models.GroupMessage, error)
	Delete(ctx context.Context, id string) error
}

type groupMessageRepository struct {
	db *gorm.DB
}

// NewGroupMessageRepository returns a new GroupMessageRepository implementation.
func NewGroupMessageRepository(db *gorm.DB) GroupMessageRepository {
	return &groupMessageRepository{db: db}
}

func (r *groupMessageRepository) Create(ctx context.Context, msg *models.GroupMessage) (*models.GroupMessage, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.get(ctx, msg.ID)
}

func (r *groupMessageRepository) get(ctx context.Context, id string) (*models.GroupMessage, error) {
	var msg models.GroupMessage
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Reads").
		Where("id = ?", id).
		First(&msg).Error; err != nil {
		return nil, mapFindError(err, "Message")
	}
	return &msg, nil
}

func (r *groupMessageRepository) ListByGroup(ctx context.Context, groupID string) ([]models.GroupMessage, error) {
	var msgs []models.GroupMessage
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND is_deleted = ?", groupID, false).
		Preload("Sender").
		Preload("Reads").
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// AddReads records memberID as a reader of each message. Existing markers are kept.
func (r *groupMessageRepository) AddReads(ctx context.Context, memberID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]models.GroupMessageRead, 0, len(messageIDs))
	for _, id := range messageIDs {
		rows = append(rows, models.GroupMessageRead{GroupMessageID: id, MemberID: memberID, ReadAt: now})
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 100).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *groupMessageRepository) SetReadState(ctx context.Context, ids []string, isRead bool) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&models.GroupMessage{}).
		Where("id IN ?", ids).
		UpdateColumn("is_read", isRead).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *groupMessageRepository) FindForSender(ctx context.Context, q MessageLookup) (*models.GroupMessage, error) {
	var msg models.GroupMessage
	tx := r.db.WithContext(ctx).Where("id = ? AND sender_id = ? AND group_id = ?", q.ID, q.SenderID, q.PeerID)
	if q.LiveOnly {
		tx = tx.Where("is_deleted = ?", false)
	}
	if err := tx.First(&msg).Error; err != nil {
		return nil, mapFindError(err, "Message")
	}
	return &msg, nil
}

func (r *groupMessageRepository) UpdateFlags(ctx context.Context, id string, fields map[string]any) (*models.GroupMessage, error) {
	if err := r.db.WithContext(ctx).Model(&models.GroupMessage{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.get(ctx, id)
}

func (r *groupMessageRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_message_id = ?", id).Delete(&models.GroupMessageRead{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Where("id = ?", id).Delete(&models.GroupMessage{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Message")
		}
		return nil
	})
}
