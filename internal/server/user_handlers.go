package server

import (
	"chatapp/internal/models"
	"chatapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /users/me
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=models.User}
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, user)
}

// ListUsers handles GET /users
// @Summary List other users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Envelope{data=[]models.User}
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	users, err := s.userService.ListUsers(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	if users == nil {
		users = []models.User{}
	}
	return models.RespondOK(c, users)
}

// UpdateName handles PUT /users/me/name
// @Summary Update display name
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string} true "New name"
// @Success 200 {object} models.Envelope{data=models.User}
// @Failure 400 {object} models.Envelope{data=[]models.FieldError}
// @Router /users/me/name [put]
func (s *Server) UpdateName(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	user, err := s.userService.UpdateName(c.UserContext(), currentUserID(c), req.Name)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, user)
}

// UpdateAboutMe handles PUT /users/me/about-me
// @Summary Update about me
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{about_me=string} true "About me"
// @Success 200 {object} models.Envelope{data=models.User}
// @Router /users/me/about-me [put]
func (s *Server) UpdateAboutMe(c *fiber.Ctx) error {
	var req struct {
		AboutMe string `json:"about_me"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	user, err := s.userService.UpdateAboutMe(c.UserContext(), currentUserID(c), req.AboutMe)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, user)
}

// UpdateStatus handles PUT /users/me/status
// @Summary Update status line
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{status=string} true "Status"
// @Success 200 {object} models.Envelope{data=models.User}
// @Router /users/me/status [put]
func (s *Server) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	user, err := s.userService.UpdateStatus(c.UserContext(), currentUserID(c), req.Status)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, user)
}

// UploadAvatar handles POST /users/me/avatar
// @Summary Upload avatar
// @Description Replaces the current avatar. jpg, jpeg or png up to 2MB.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Image"
// @Success 200 {object} models.Envelope{data=models.User}
// @Failure 400 {object} models.Envelope
// @Router /users/me/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	in, err := readUpload(c, service.AvatarImage.Field)
	if err != nil {
		return s.respondError(c, err)
	}
	user, err := s.userService.UpdateAvatar(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, user)
}
