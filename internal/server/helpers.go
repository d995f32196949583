package server

import (
	"errors"
	"io"

	"chatapp/internal/middleware"
	"chatapp/internal/models"
	"chatapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize    = 50
	maxPaginationLimit = 100
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}

// mapServiceError picks the HTTP status for an error returned by a service.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	return fiber.StatusInternalServerError
}

// respondError logs internal failures and renders err as an envelope.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, status, err)
}

// parseBody decodes the JSON body into dest.
func parseBody(c *fiber.Ctx, dest any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dest); err != nil {
		return models.NewBadRequestError("Invalid request body")
	}
	return nil
}

// readUpload reads the multipart file in field. A missing file yields empty
// content so the upload service reports it with its own message.
func readUpload(c *fiber.Ctx, field string) (service.UploadInput, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return service.UploadInput{}, nil
	}

	f, err := fh.Open()
	if err != nil {
		return service.UploadInput{}, models.NewInternalError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return service.UploadInput{}, models.NewInternalError(err)
	}
	return service.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}
