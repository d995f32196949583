package server

import (
	"chatapp/internal/models"
	"chatapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GroupGate authorizes the caller against the group in :id for capability
// and stores the group and membership in locals.
func (s *Server) GroupGate(capability service.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		group, member, err := s.groupService.Authorize(c.UserContext(), c.Params("id"), currentUserID(c), capability)
		if err != nil {
			return s.respondError(c, err)
		}
		c.Locals("group", group)
		c.Locals("membership", member)
		return c.Next()
	}
}

// FriendMessageGate lets the request through only when :id is a friend of the caller.
func (s *Server) FriendMessageGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.messageService.Authorize(c.UserContext(), currentUserID(c), c.Params("id")); err != nil {
			return s.respondError(c, err)
		}
		return c.Next()
	}
}

// GroupMessageGate lets the request through only when the caller belongs to group :id.
func (s *Server) GroupMessageGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.groupMessageService.Authorize(c.UserContext(), c.Params("id"), currentUserID(c)); err != nil {
			return s.respondError(c, err)
		}
		return c.Next()
	}
}

func gatedGroup(c *fiber.Ctx) *models.Group {
	g, _ := c.Locals("group").(*models.Group)
	return g
}
