package server

import (
	"chatapp/internal/models"
	"chatapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

const msgDeletedPermanently = "Message deleted permanently"

func parseContent(c *fiber.Ctx) (string, error) {
	var in service.ContentInput
	if err := parseBody(c, &in); err != nil {
		return "", err
	}
	return in.Content, nil
}

// ListFriendMessages handles GET /message-friends/:id
// @Summary Conversation with a friend
// @Description Marks the friend's messages to the caller as read.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Friend user ID"
// @Success 200 {object} models.Envelope{data=[]models.Message}
// @Failure 403 {object} models.Envelope
// @Router /message-friends/{id} [get]
func (s *Server) ListFriendMessages(c *fiber.Ctx) error {
	msgs, err := s.messageService.List(c.UserContext(), currentUserID(c), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, msgs)
}

// SendFriendMessage handles POST /message-friends/:id
// @Summary Send a direct message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Friend user ID"
// @Param request body service.ContentInput true "Message"
// @Success 201 {object} models.Envelope{data=models.Message}
// @Failure 400 {object} models.Envelope{data=[]models.FieldError}
// @Failure 403 {object} models.Envelope
// @Router /message-friends/{id} [post]
func (s *Server) SendFriendMessage(c *fiber.Ctx) error {
	content, err := parseContent(c)
	if err != nil {
		return s.respondError(c, err)
	}
	msg, err := s.messageService.Send(c.UserContext(), currentUserID(c), c.Params("id"), content)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondCreated(c, msg)
}

// EditFriendMessage handles PUT /message-friends/:id/:messageId
// @Summary Edit a direct message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Friend user ID"
// @Param messageId path string true "Message ID"
// @Param request body service.ContentInput true "Message"
// @Success 200 {object} models.Envelope{data=models.Message}
// @Failure 400 {object} models.Envelope{data=[]models.FieldError}
// @Failure 404 {object} models.Envelope
// @Router /message-friends/{id}/{messageId} [put]
func (s *Server) EditFriendMessage(c *fiber.Ctx) error {
	content, err := parseContent(c)
	if err != nil {
		return s.respondError(c, err)
	}
	msg, err := s.messageService.Edit(c.UserContext(), currentUserID(c), c.Params("id"), c.Params("messageId"), content)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, msg)
}

// SoftDeleteFriendMessage handles PUT /message-friends/:id/:messageId/soft-delete
// @Summary Soft-delete a direct message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Friend user ID"
// @Param messageId path string true "Message ID"
// @Success 200 {object} models.Envelope{data=models.Message}
// @Failure 404 {object} models.Envelope
// @Router /message-friends/{id}/{messageId}/soft-delete [put]
func (s *Server) SoftDeleteFriendMessage(c *fiber.Ctx) error {
	msg, err := s.messageService.SoftDelete(c.UserContext(), currentUserID(c), c.Params("id"), c.Params("messageId"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, msg)
}

// RestoreFriendMessage handles PUT /message-friends/:id/:messageId/restore
// @Summary Restore a soft-deleted direct message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Friend user ID"
// @Param messageId path string true "Message ID"
// @Success 200 {object} models.Envelope{data=models.Message}
// @Failure 404 {object} models.Envelope
// @Router /message-friends/{id}/{messageId}/restore [put]
func (s *Server) RestoreFriendMessage(c *fiber.Ctx) error {
	msg, err := s.messageService.Restore(c.UserContext(), currentUserID(c), c.Params("id"), c.Params("messageId"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, msg)
}

// DestroyFriendMessage handles DELETE /message-friends/:id/:messageId
// @Summary Delete a direct message permanently
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Friend user ID"
// @Param messageId path string true "Message ID"
// @Success 200 {object} models.Envelope{data=string}
// @Failure 404 {object} models.Envelope
// @Router /message-friends/{id}/{messageId} [delete]
func (s *Server) DestroyFriendMessage(c *fiber.Ctx) error {
	if err := s.messageService.Destroy(c.UserContext(), currentUserID(c), c.Params("id"), c.Params("messageId")); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, msgDeletedPermanently)
}

// ListGroupMessages handles GET /message-groups/:id
// @Summary Group conversation
// @Description Records the caller's read receipts and recomputes is_read against current membership.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} models.Envelope{data=[]models.GroupMessage}
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /message-groups/{id} [get]
func (s *Server) ListGroupMessages(c *fiber.Ctx) error {
	msgs, err := s.groupMessageService.List(c.UserContext(), c.Params("id"), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, msgs)
}

// SendGroupMessage handles POST /message-groups/:id
// @Summary Send a group message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param request body service.ContentInput true "Message"
// @Success 201 {object} models.Envelope{data=models.GroupMessage}
// @Router /message-groups/{id} [post]
func (s *Server) SendGroupMessage(c *fiber.Ctx) error {
	content, err := parseContent(c)
	if err != nil {
		return s.respondError(c, err)
	}
	msg, err := s.groupMessageService.Send(c.UserContext(), c.Params("id"), currentUserID(c), content)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondCreated(c, msg)
}

// EditGroupMessage handles PUT /message-groups/:id/:messageId
// @Summary Edit a group message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param messageId path string true "Message ID"
// @Param request body service.ContentInput true "Message"
// @Success 200 {object} models.Envelope{data=models.GroupMessage}
// @Failure 400 {object} models.Envelope{data=[]models.FieldError}
// @Failure 404 {object} models.Envelope
// @Router /message-groups/{id}/{messageId} [put]
func (s *Server) EditGroupMessage(c *fiber.Ctx) error {
	content, err := parseContent(c)
	if err != nil {
		return s.respondError(c, err)
	}
	msg, err := s.groupMessageService.Edit(c.UserContext(), c.Params("id"), currentUserID(c), c.Params("messageId"), content)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, msg)
}

// SoftDeleteGroupMessage handles PUT /message-groups/:id/:messageId/soft-delete
// @Summary Soft-delete a group message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param messageId path string true "Message ID"
// @Success 200 {object} models.Envelope{data=models.GroupMessage}
// @Failure 404 {object} models.Envelope
// @Router /message-groups/{id}/{messageId}/soft-delete [put]
func (s *Server) SoftDeleteGroupMessage(c *fiber.Ctx) error {
	msg, err := s.groupMessageService.SoftDelete(c.UserContext(), c.Params("id"), currentUserID(c), c.Params("messageId"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, msg)
}

// RestoreGroupMessage handles PUT /message-groups/:id/:messageId/restore
// @Summary Restore a soft-deleted group message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param messageId path string true "Message ID"
// @Success 200 {object} models.Envelope{data=models.GroupMessage}
// @Failure 404 {object} models.Envelope
// @Router /message-groups/{id}/{messageId}/restore [put]
func (s *Server) RestoreGroupMessage(c *fiber.Ctx) error {
	msg, err := s.groupMessageService.Restore(c.UserContext(), c.Params("id"), currentUserID(c), c.Params("messageId"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, msg)
}

// DestroyGroupMessage handles DELETE /message-groups/:id/:messageId
// @Summary Delete a group message permanently
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param messageId path string true "Message ID"
// @Success 200 {object} models.Envelope{data=string}
// @Failure 404 {object} models.Envelope
// @Router /message-groups/{id}/{messageId} [delete]
func (s *Server) DestroyGroupMessage(c *fiber.Ctx) error {
	if err := s.groupMessageService.Destroy(c.UserContext(), c.Params("id"), currentUserID(c), c.Params("messageId")); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, msgDeletedPermanently)
}
