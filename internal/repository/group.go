package repository

import (
	"context"
	"errors"

	"chatapp/internal/database"
	"chatapp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepository defines persistence for groups, memberships and roles.
type GroupRepository interface {
	CreateWithOwner(ctx context.Context, group *models.Group, ownerID string) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	GetDetail(ctx context.Context, id string) (*models.Group, error)
	GetByInviteLink(ctx context.Context, link string) (*models.Group, error)
	ListForMember(ctx context.Context, userID string) ([]models.Group, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) (*models.Group, error)
	Delete(ctx context.Context, id string) error

	GetMembership(ctx context.Context, groupID, userID string) (*models.GroupMember, error)
	AddMember(ctx context.Context, groupID, userID, role string) (*models.GroupMember, error)
	RemoveMember(ctx context.Context, groupID, userID string) (groupDeleted bool, err error)
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository returns a new GroupRepository implementation.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// CreateWithOwner inserts the group and makes ownerID its admin in one transaction.
func (r *groupRepository) CreateWithOwner(ctx context.Context, group *models.Group, ownerID string) error {
	group.CreatedBy = ownerID
	group.UpdatedBy = ownerID
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(group).Error; err != nil {
			return models.NewInternalError(err)
		}
		member, err := addMember(tx, group.ID, ownerID, models.RoleAdmin)
		if err != nil {
			return err
		}
		group.Members = []models.GroupMember{*member}
		return nil
	})
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error; err != nil {
		return nil, mapFindError(err, "Group")
	}
	return &group, nil
}

// GetDetail loads the group with members, their users and their roles.
func (r *groupRepository) GetDetail(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Members.Member").
		Preload("Members.Role.Role").
		Where("id = ?", id).
		First(&group).Error; err != nil {
		return nil, mapFindError(err, "Group")
	}
	return &group, nil
}

func (r *groupRepository) GetByInviteLink(ctx context.Context, link string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Where("invite_link = ?", link).First(&group).Error; err != nil {
		return nil, mapFindError(err, "Group")
	}
	return &group, nil
}

// ListForMember returns the caller's groups, each with its live messages newest first.
func (r *groupRepository) ListForMember(ctx context.Context, userID string) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.GroupMember{}).Select("group_id").Where("member_id = ?", userID)).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_deleted = ?", false).Order("created_at DESC")
		}).
		Preload("Messages.Sender").
		Preload("Messages.Reads").
		Order("created_at DESC").
		Find(&groups).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

func (r *groupRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Group{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Group")
		}
		if err := tx.Where("id = ?", id).First(&group).Error; err != nil {
			return mapFindError(err, "Group")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Group{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Group")
		}
		return deleteGroupDependents(tx, id)
	})
}

// deleteGroupDependents removes rows that reference the group. Foreign key
// cascades are not relied on so SQLite behaves like Postgres.
func deleteGroupDependents(tx *gorm.DB, groupID string) error {
	msgIDs := tx.Model(&models.GroupMessage{}).Select("id").Where("group_id = ?", groupID)
	steps := []*gorm.DB{
		tx.Where("group_message_id IN (?)", msgIDs).Delete(&models.GroupMessageRead{}),
		tx.Where("group_id = ?", groupID).Delete(&models.GroupMessage{}),
		tx.Where("group_id = ?", groupID).Delete(&models.GroupRole{}),
		tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}),
	}
	for _, step := range steps {
		if step.Error != nil {
			return models.NewInternalError(step.Error)
		}
	}
	return nil
}

func (r *groupRepository) GetMembership(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.WithContext(ctx).
		Preload("Role.Role").
		Where("group_id = ? AND member_id = ?", groupID, userID).
		First(&member).Error; err != nil {
		return nil, mapFindError(err, "Group member")
	}
	return &member, nil
}

func (r *groupRepository) AddMember(ctx context.Context, groupID, userID, role string) (*models.GroupMember, error) {
	var member *models.GroupMember
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		member, err = addMember(tx, groupID, userID, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func addMember(tx *gorm.DB, groupID, userID, roleName string) (*models.GroupMember, error) {
	var role models.Role
	if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewInternalError(errors.New("role " + roleName + " is not seeded"))
		}
		return nil, models.NewInternalError(err)
	}

	member := &models.GroupMember{GroupID: groupID, MemberID: userID}
	if err := tx.Omit(clause.Associations).Create(member).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			return nil, models.NewBadRequestError("You are already a member of this group")
		}
		return nil, models.NewInternalError(err)
	}

	groupRole := &models.GroupRole{
		GroupMemberID: member.ID,
		GroupID:       groupID,
		MemberID:      userID,
		RoleID:        role.ID,
	}
	if err := tx.Omit(clause.Associations).Create(groupRole).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	groupRole.Role = &role
	member.Role = groupRole
	return member, nil
}

// RemoveMember deletes the membership and its role. When nobody is left the
// group and its dependents are deleted in the same transaction.
func (r *groupRepository) RemoveMember(ctx context.Context, groupID, userID string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ? AND member_id = ?", groupID, userID).
			Delete(&models.GroupRole{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Where("group_id = ? AND member_id = ?", groupID, userID).Delete(&models.GroupMember{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Group member")
		}

		var remaining int64
		if err := tx.Model(&models.GroupMember{}).Where("group_id = ?", groupID).Count(&remaining).Error; err != nil {
			return models.NewInternalError(err)
		}
		if remaining > 0 {
			return nil
		}

		if err := deleteGroupDependents(tx, groupID); err != nil {
			return err
		}
		if err := tx.Where("id = ?", groupID).Delete(&models.Group{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (r *groupRepository) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("member_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
