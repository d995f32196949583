package server

import (
	"chatapp/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListFriends handles GET /friends
// @Summary Friends and pending requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=models.FriendList}
// @Router /friends [get]
func (s *Server) ListFriends(c *fiber.Ctx) error {
	list, err := s.friendService.List(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, list)
}

// SendFriendRequest handles POST /friends/:id
// @Summary Send a friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Receiver user ID"
// @Success 201 {object} models.Envelope{data=models.FriendRequest}
// @Failure 400 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /friends/{id} [post]
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	req, err := s.friendService.SendRequest(c.UserContext(), currentUserID(c), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondCreated(c, req)
}

// AcceptFriendRequest handles POST /friends/:id/accept
// @Summary Accept a friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sender user ID"
// @Success 201 {object} models.Envelope{data=models.Friend}
// @Failure 404 {object} models.Envelope
// @Router /friends/{id}/accept [post]
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	friend, err := s.friendService.AcceptRequest(c.UserContext(), currentUserID(c), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondCreated(c, friend)
}

// RejectFriendRequest handles POST /friends/:id/reject
// @Summary Reject a friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sender user ID"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /friends/{id}/reject [post]
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	if err := s.friendService.RejectRequest(c.UserContext(), currentUserID(c), c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, nil)
}

// CancelFriendRequest handles POST /friends/:id/cancel
// @Summary Cancel a sent friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Receiver user ID"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /friends/{id}/cancel [post]
func (s *Server) CancelFriendRequest(c *fiber.Ctx) error {
	if err := s.friendService.CancelRequest(c.UserContext(), currentUserID(c), c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, nil)
}

// Unfriend handles DELETE /friends/:id
// @Summary Remove a friend
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Friend user ID"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /friends/{id} [delete]
func (s *Server) Unfriend(c *fiber.Ctx) error {
	if err := s.friendService.Unfriend(c.UserContext(), currentUserID(c), c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, nil)
}
