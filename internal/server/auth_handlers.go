package server

import (
	"chatapp/internal/models"
	"chatapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /register
// @Summary Register
// @Description Create a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 201 {object} models.Envelope{data=models.User}
// @Failure 400 {object} models.Envelope{data=[]models.FieldError}
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return s.respondError(c, err)
	}

	user, err := s.authService.Register(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondCreated(c, user)
}

// Login handles POST /login
// @Summary Login
// @Description Exchange username and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 200 {object} models.Envelope{data=service.Token}
// @Failure 400 {object} models.Envelope{data=[]models.FieldError}
// @Failure 401 {object} models.Envelope
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var in service.LoginInput
	if err := parseBody(c, &in); err != nil {
		return s.respondError(c, err)
	}

	token, err := s.authService.Login(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, token)
}

// Logout handles POST /logout
// @Summary Logout
// @Description Revoke the presented token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope
// @Failure 401 {object} models.Envelope
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), currentClaims(c)); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, nil)
}
