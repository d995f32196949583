package service

import (
	"context"
	"strings"

	"chatapp/internal/models"
	"chatapp/internal/repository"
	"chatapp/internal/validation"
)

const msgNotGroupMember = "Unauthorized you are not a member of this group"

type CreateGroupInput struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=255"`
	IsPrivate   *bool  `json:"is_private"`
}

type UpdateGroupInput struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=255"`
	IsPrivate   *bool  `json:"is_private"`
}

// GroupService manages groups and memberships.
type GroupService struct {
	groups  repository.GroupRepository
	uploads *UploadService
}

// NewGroupService returns a GroupService. uploads may be nil.
func NewGroupService(groups repository.GroupRepository, uploads *UploadService) *GroupService {
	return &GroupService{groups: groups, uploads: uploads}
}

// Authorize loads the group and the caller's membership and checks that the
// caller's role grants capability.
func (s *GroupService) Authorize(ctx context.Context, groupID, userID string, capability Capability) (*models.Group, *models.GroupMember, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	member, err := s.groups.GetMembership(ctx, groupID, userID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, nil, models.NewUnauthorizedError(msgNotGroupMember)
		}
		return nil, nil, err
	}
	if !Can(memberRole(member), capability) {
		return nil, nil, models.NewUnauthorizedError(msgNotGroupMember)
	}
	return group, member, nil
}

func (s *GroupService) CreateGroup(ctx context.Context, ownerID string, in CreateGroupInput) (*models.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        in.Name,
		Description: in.Description,
		IsPrivate:   in.IsPrivate != nil && *in.IsPrivate,
	}
	if err := s.groups.CreateWithOwner(ctx, group, ownerID); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroups returns the caller's groups with their live messages, newest first.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	groups, err := s.groups.ListForMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i].ResolveImage(s.uploads.Resolver())
		for j := range groups[i].Messages {
			groups[i].Messages[j].SyncReadBy()
		}
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}

// ShowGroup returns the group with members and roles. The invite link is only
// included when the viewer is a member allowed to view the group.
func (s *GroupService) ShowGroup(ctx context.Context, groupID, viewerID string) (*models.Group, error) {
	group, err := s.groups.GetDetail(ctx, groupID)
	if err != nil {
		return nil, err
	}

	visible := false
	for i := range group.Members {
		if group.Members[i].MemberID == viewerID {
			visible = Can(memberRole(&group.Members[i]), CapViewGroup)
			break
		}
	}
	if !visible {
		group.InviteLink = ""
	}

	group.ResolveImage(s.uploads.Resolver())
	return group, nil
}

// UpdateGroup applies in to group. Only the creator may update; anyone else
// is told the group does not exist.
func (s *GroupService) UpdateGroup(ctx context.Context, group *models.Group, userID string, in UpdateGroupInput) (*models.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if group.CreatedBy != userID {
		return nil, models.NewNotFoundError("Group")
	}

	fields := map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"updated_by":  userID,
	}
	if in.IsPrivate != nil {
		fields["is_private"] = *in.IsPrivate
	}

	updated, err := s.groups.UpdateFields(ctx, group.ID, fields)
	if err != nil {
		return nil, err
	}
	updated.ResolveImage(s.uploads.Resolver())
	return updated, nil
}

// UploadGroupImage replaces the group's image file.
func (s *GroupService) UploadGroupImage(ctx context.Context, group *models.Group, userID string, in UploadInput) (*models.Group, error) {
	if s.uploads == nil {
		return nil, models.NewBadRequestError("Uploads are not enabled")
	}

	in.OwnerID = group.ID
	key, err := s.uploads.Replace(ctx, GroupImage, group.GroupImage, in)
	if err != nil {
		return nil, err
	}

	updated, err := s.groups.UpdateFields(ctx, group.ID, map[string]any{"group_image": key, "updated_by": userID})
	if err != nil {
		return nil, err
	}
	updated.ResolveImage(s.uploads.Resolver())
	return updated, nil
}

func (s *GroupService) DeleteGroup(ctx context.Context, groupID string) error {
	return s.groups.Delete(ctx, groupID)
}

// JoinByInviteLink adds the caller as a member of the group behind link.
func (s *GroupService) JoinByInviteLink(ctx context.Context, userID, link string) (*models.GroupMember, error) {
	group, err := s.groups.GetByInviteLink(ctx, link)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, group.ID, userID)
}

// JoinPublicGroup adds the caller to a group that is not private.
func (s *GroupService) JoinPublicGroup(ctx context.Context, userID, groupID string) (*models.GroupMember, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.IsPrivate {
		return nil, models.NewUnauthorizedError("Cannot join private group use invite link instead")
	}
	return s.join(ctx, group.ID, userID)
}

func (s *GroupService) join(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	_, err := s.groups.GetMembership(ctx, groupID, userID)
	if err == nil {
		return nil, models.NewBadRequestError("You are already a member of this group")
	}
	if !models.IsNotFound(err) {
		return nil, err
	}
	return s.groups.AddMember(ctx, groupID, userID, models.RoleMember)
}

// LeaveGroup removes the caller's membership. It reports whether the group
// was deleted because the caller was its last member.
func (s *GroupService) LeaveGroup(ctx context.Context, groupID, userID string) (bool, error) {
	return s.groups.RemoveMember(ctx, groupID, userID)
}
