package models

import "github.com/gofiber/fiber/v2"

// Meta is the status block present in every API response.
type Meta struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Envelope is the uniform response body: {meta:{status,message}, data?}.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data,omitempty"`
}

// Respond writes an envelope with the given status, message and optional data.
func Respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{
		Meta: Meta{Status: status, Message: message},
		Data: data,
	})
}

// RespondOK writes a 200 "Success" envelope.
func RespondOK(c *fiber.Ctx, data any) error {
	return Respond(c, fiber.StatusOK, "Success", data)
}

// RespondCreated writes a 201 "Success" envelope.
func RespondCreated(c *fiber.Ctx, data any) error {
	return Respond(c, fiber.StatusCreated, "Success", data)
}

// RespondWithError creates a standardized error response.
// Internal error details are never echoed to the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	appErr := AsAppError(err)

	var data any
	if len(appErr.Fields) > 0 {
		data = appErr.Fields
	}

	return Respond(c, status, appErr.Message, data)
}
