package models

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	a := NewID(PrefixGroupMessage)
	b := NewID(PrefixGroupMessage)
	assert.Regexp(t, `^group-message-[0-9a-f]{16}$`, a)
	assert.NotEqual(t, a, b)
}

func TestBeforeCreateAssignsIDs(t *testing.T) {
	g := &Group{}
	require.NoError(t, g.BeforeCreate(nil))
	assert.Regexp(t, `^group-[0-9a-f]{16}$`, g.ID)
	assert.Regexp(t, `^group-invite-link-[0-9a-f]{16}$`, g.InviteLink)

	kept := &User{ID: "user-fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "user-fixed", kept.ID)

	req := &FriendRequest{}
	require.NoError(t, req.BeforeCreate(nil))
	assert.Regexp(t, `^friendRequest-`, req.ID)
}

func TestAppErrorStatus(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NewValidationError("bad"), fiber.StatusBadRequest},
		{NewFieldValidationError(), fiber.StatusBadRequest},
		{NewBadRequestError("bad"), fiber.StatusBadRequest},
		{NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{NewForbiddenError("no"), fiber.StatusForbidden},
		{NewNotFoundError("Group"), fiber.StatusNotFound},
		{NewInternalError(io.EOF), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.Status(), tt.err.Code)
	}

	assert.Equal(t, "Group not found", NewNotFoundError("Group").Message)
	assert.True(t, IsNotFound(NewNotFoundMessage("Message not found or already deleted")))
	assert.False(t, IsNotFound(io.EOF))
}

func TestAsAppErrorHidesInternals(t *testing.T) {
	wrapped := NewInternalError(errors.New("pq: connection refused"))
	assert.ErrorIs(t, wrapped, wrapped.Err)
	assert.Equal(t, "Internal server error", AsAppError(errors.New("boom")).Message)
	assert.Equal(t, CodeForbidden, AsAppError(NewForbiddenError("x")).Code)
}

func TestResolveAvatar(t *testing.T) {
	resolve := func(key string) string { return "http://cdn/" + key }

	u := &User{Avatar: "1-user.png"}
	u.ResolveAvatar(resolve)
	assert.Equal(t, "http://cdn/1-user.png", u.Avatar)

	u.ResolveAvatar(resolve)
	assert.Equal(t, "http://cdn/1-user.png", u.Avatar, "absolute URLs are left alone")

	empty := &User{}
	empty.ResolveAvatar(resolve)
	assert.Empty(t, empty.Avatar)

	var nilUser *User
	assert.NotPanics(t, func() { nilUser.ResolveAvatar(resolve) })

	g := &Group{
		GroupImage: "group-image/1-g.png",
		Members:    []GroupMember{{Member: &User{Avatar: "a.png"}}, {}},
	}
	g.ResolveImage(resolve)
	assert.Equal(t, "http://cdn/group-image/1-g.png", g.GroupImage)
	assert.Equal(t, "http://cdn/a.png", g.Members[0].Member.Avatar)
}

func TestGroupMessageReaders(t *testing.T) {
	m := &GroupMessage{Reads: []GroupMessageRead{{MemberID: "user-a"}, {MemberID: "user-b"}}}
	m.SyncReadBy()
	assert.Equal(t, []string{"user-a", "user-b"}, m.ReadBy)
	assert.True(t, m.HasReader("user-b"))
	assert.False(t, m.HasReader("user-c"))

	empty := &GroupMessage{}
	empty.SyncReadBy()
	assert.NotNil(t, empty.ReadBy)
}

func TestRespondEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error { return RespondOK(c, fiber.Map{"a": 1}) })
	app.Get("/none", func(c *fiber.Ctx) error { return RespondCreated(c, nil) })
	app.Get("/fields", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusBadRequest,
			NewFieldValidationError(FieldError{Field: "name", Rule: "required", Message: "Name is required"}))
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, errors.New("secret detail"))
	})

	get := func(path string) (int, map[string]any) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	status, body := get("/ok")
	assert.Equal(t, 200, status)
	assert.Equal(t, map[string]any{"status": 200.0, "message": "Success"}, body["meta"])
	assert.Equal(t, map[string]any{"a": 1.0}, body["data"])

	status, body = get("/none")
	assert.Equal(t, 201, status)
	assert.NotContains(t, body, "data")

	_, body = get("/fields")
	assert.Equal(t, "Validation error", body["meta"].(map[string]any)["message"])
	assert.Len(t, body["data"], 1)

	status, body = get("/internal")
	assert.Equal(t, 500, status)
	assert.Equal(t, "Internal server error", body["meta"].(map[string]any)["message"])
}
