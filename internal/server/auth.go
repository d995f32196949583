package server

import (
	"context"
	"strings"

	"chatapp/internal/middleware"
	"chatapp/internal/models"
	"chatapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

const msgLoginRequired = "Unauthorized access please login"

// AuthRequired verifies the bearer token (header, or ?token= for clients
// that cannot set headers) and stores the caller in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(msgLoginRequired))
		}

		claims, err := s.authService.ParseToken(c.UserContext(), raw)
		if err != nil {
			return s.respondError(c, err)
		}

		c.Locals("userID", claims.Subject)
		c.Locals("claims", claims)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, claims.Subject)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

func currentClaims(c *fiber.Ctx) *service.Claims {
	claims, _ := c.Locals("claims").(*service.Claims)
	return claims
}
