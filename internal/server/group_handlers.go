package server

import (
	"chatapp/internal/models"
	"chatapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListGroups handles GET /groups
// @Summary Groups the caller belongs to
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=[]models.Group}
// @Router /groups [get]
func (s *Server) ListGroups(c *fiber.Ctx) error {
	groups, err := s.groupService.ListGroups(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, groups)
}

// CreateGroup handles POST /groups
// @Summary Create a group
// @Description The caller becomes the group's admin.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateGroupInput true "Group"
// @Success 201 {object} models.Envelope{data=models.Group}
// @Failure 400 {object} models.Envelope{data=[]models.FieldError}
// @Router /groups [post]
func (s *Server) CreateGroup(c *fiber.Ctx) error {
	var in service.CreateGroupInput
	if err := parseBody(c, &in); err != nil {
		return s.respondError(c, err)
	}
	group, err := s.groupService.CreateGroup(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Group created", group)
}

// ShowGroup handles GET /groups/:id
// @Summary Group detail with members and roles
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} models.Envelope{data=models.Group}
// @Failure 404 {object} models.Envelope
// @Router /groups/{id} [get]
func (s *Server) ShowGroup(c *fiber.Ctx) error {
	group, err := s.groupService.ShowGroup(c.UserContext(), c.Params("id"), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, group)
}

// UpdateGroup handles PUT /groups/:id
// @Summary Update a group
// @Description Requires the update_group capability and group ownership.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param request body service.UpdateGroupInput true "Changes"
// @Success 200 {object} models.Envelope{data=models.Group}
// @Failure 401 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /groups/{id} [put]
func (s *Server) UpdateGroup(c *fiber.Ctx) error {
	var in service.UpdateGroupInput
	if err := parseBody(c, &in); err != nil {
		return s.respondError(c, err)
	}
	group, err := s.groupService.UpdateGroup(c.UserContext(), gatedGroup(c), currentUserID(c), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, group)
}

// UploadGroupImage handles POST /groups/:id/group-image
// @Summary Upload the group image
// @Tags groups
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param group_image formData file true "Image"
// @Success 200 {object} models.Envelope{data=models.Group}
// @Failure 400 {object} models.Envelope
// @Router /groups/{id}/group-image [post]
func (s *Server) UploadGroupImage(c *fiber.Ctx) error {
	in, err := readUpload(c, service.GroupImage.Field)
	if err != nil {
		return s.respondError(c, err)
	}
	group, err := s.groupService.UploadGroupImage(c.UserContext(), gatedGroup(c), currentUserID(c), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Group image uploaded successfully", group)
}

// DeleteGroup handles DELETE /groups/:id
// @Summary Delete a group
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} models.Envelope
// @Failure 401 {object} models.Envelope
// @Router /groups/{id} [delete]
func (s *Server) DeleteGroup(c *fiber.Ctx) error {
	if err := s.groupService.DeleteGroup(c.UserContext(), gatedGroup(c).ID); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, nil)
}

// LeaveGroup handles POST /groups/:id/leave
// @Summary Leave a group
// @Description The group is deleted when its last member leaves.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} models.Envelope{data=object{group_deleted=bool}}
// @Router /groups/{id}/leave [post]
func (s *Server) LeaveGroup(c *fiber.Ctx) error {
	deleted, err := s.groupService.LeaveGroup(c.UserContext(), gatedGroup(c).ID, currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.Map{"group_deleted": deleted})
}

// JoinGroup handles POST /groups/:id/join for public groups.
// @Summary Join a public group
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 201 {object} models.Envelope{data=models.GroupMember}
// @Failure 400 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /groups/{id}/join [post]
func (s *Server) JoinGroup(c *fiber.Ctx) error {
	member, err := s.groupService.JoinPublicGroup(c.UserContext(), currentUserID(c), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondCreated(c, member)
}

// JoinByInviteLink handles POST /group-link/:link/join
// @Summary Join a group through its invite link
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param link path string true "Invite link"
// @Success 201 {object} models.Envelope{data=models.GroupMember}
// @Failure 400 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /group-link/{link}/join [post]
func (s *Server) JoinByInviteLink(c *fiber.Ctx) error {
	member, err := s.groupService.JoinByInviteLink(c.UserContext(), currentUserID(c), c.Params("link"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondCreated(c, member)
}
