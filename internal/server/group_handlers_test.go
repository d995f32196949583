package server

import (
	"net/http"
	"testing"

	"chatapp/internal/models"
	"chatapp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const msgNotMember = "Unauthorized you are not a member of this group"

func TestCreateAndShowGroup(t *testing.T) {
	e := newTestEnv(t)
	ann, annToken := e.user("ann")
	_, bobToken := e.user("bob")

	status, env := e.do(http.MethodPost, "/groups", annToken, map[string]any{
		"name":        "  Hikers ",
		"description": "weekend trips",
		"is_private":  true,
	})
	require.Equal(t, http.StatusCreated, status, env.Meta.Message)
	assert.Equal(t, "Group created", env.Meta.Message)
	group := decode[models.Group](t, env)
	assert.Equal(t, "Hikers", group.Name)
	assert.True(t, group.IsPrivate)
	assert.Equal(t, ann.ID, group.CreatedBy)
	assert.Regexp(t, `^group-invite-link-[0-9a-f]{16}$`, group.InviteLink)

	status, env = e.do(http.MethodGet, "/groups/"+group.ID, annToken, nil)
	require.Equal(t, http.StatusOK, status)
	shown := decode[models.Group](t, env)
	assert.Equal(t, group.InviteLink, shown.InviteLink)
	require.Len(t, shown.Members, 1)
	assert.Equal(t, models.RoleAdmin, shown.Members[0].Role.Role.Name)

	status, env = e.do(http.MethodGet, "/groups/"+group.ID, bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[models.Group](t, env).InviteLink)

	status, env = e.do(http.MethodGet, "/groups", annToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Group](t, env), 1)

	status, env = e.do(http.MethodGet, "/groups", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.Group](t, env))

	status, _ = e.do(http.MethodPost, "/groups", annToken, map[string]any{"name": "ab"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = e.do(http.MethodGet, "/groups/group-0000000000000000", annToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Group not found", env.Meta.Message)
}

func TestUpdateGroupGates(t *testing.T) {
	e := newTestEnv(t)
	ann, annToken := e.user("ann")
	mod, modToken := e.user("mod")
	mem, memToken := e.user("mem")
	_, outsiderToken := e.user("out")

	g := testutil.CreateGroup(t, e.db, ann, "Hikers", false)
	testutil.AddMember(t, e.db, g, mod, models.RoleModerator)
	testutil.AddMember(t, e.db, g, mem, models.RoleMember)

	body := map[string]any{"name": "Climbers", "description": "up"}

	tests := []struct {
		name    string
		token   string
		status  int
		message string
	}{
		{"outsider", outsiderToken, http.StatusUnauthorized, msgNotMember},
		{"member lacks capability", memToken, http.StatusUnauthorized, msgNotMember},
		{"moderator is not creator", modToken, http.StatusNotFound, "Group not found"},
		{"creator", annToken, http.StatusOK, "Success"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := e.do(http.MethodPut, "/groups/"+g.ID, tt.token, body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, env.Meta.Message)
		})
	}

	var stored models.Group
	require.NoError(t, e.db.First(&stored, "id = ?", g.ID).Error)
	assert.Equal(t, "Climbers", stored.Name)

	status, env := e.do(http.MethodDelete, "/groups/"+g.ID, modToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, msgNotMember, env.Meta.Message)

	status, _ = e.do(http.MethodDelete, "/groups/"+g.ID, annToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = e.do(http.MethodGet, "/groups/"+g.ID, annToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUploadGroupImage(t *testing.T) {
	e := newTestEnv(t)
	ann, annToken := e.user("ann")
	mem, memToken := e.user("mem")
	g := testutil.CreateGroup(t, e.db, ann, "Hikers", false)
	testutil.AddMember(t, e.db, g, mem, models.RoleMember)

	status, env := e.upload("/groups/"+g.ID+"/group-image", annToken, "group_image", "cover.png", pngBytes(t, 16, 16))
	require.Equal(t, http.StatusOK, status, env.Meta.Message)
	assert.Equal(t, "Group image uploaded successfully", env.Meta.Message)
	assert.Regexp(t, `^http://localhost:3333/uploads/group-image/\d+-`+g.ID+`\.png$`, decode[models.Group](t, env).GroupImage)

	status, _ = e.upload("/groups/"+g.ID+"/group-image", memToken, "group_image", "cover.png", pngBytes(t, 16, 16))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = e.upload("/groups/"+g.ID+"/group-image", annToken, "other", "cover.png", pngBytes(t, 16, 16))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Group image is required", env.Meta.Message)
}

func TestJoinGroups(t *testing.T) {
	e := newTestEnv(t)
	ann, _ := e.user("ann")
	_, bobToken := e.user("bob")

	private := testutil.CreateGroup(t, e.db, ann, "Secret", true)
	public := testutil.CreateGroup(t, e.db, ann, "Open", false)

	status, env := e.do(http.MethodPost, "/groups/"+private.ID+"/join", bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Cannot join private group use invite link instead", env.Meta.Message)

	status, env = e.do(http.MethodPost, "/group-link/"+private.InviteLink+"/join", bobToken, nil)
	require.Equal(t, http.StatusCreated, status, env.Meta.Message)
	assert.Equal(t, private.ID, decode[models.GroupMember](t, env).GroupID)

	status, env = e.do(http.MethodPost, "/group-link/"+private.InviteLink+"/join", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You are already a member of this group", env.Meta.Message)

	status, _ = e.do(http.MethodPost, "/group-link/nope/join", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = e.do(http.MethodPost, "/groups/"+public.ID+"/join", bobToken, nil)
	assert.Equal(t, http.StatusCreated, status)

	status, env = e.do(http.MethodGet, "/groups", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Group](t, env), 2)
}

func TestLeaveGroupDeletesWhenEmpty(t *testing.T) {
	e := newTestEnv(t)
	ann, annToken := e.user("ann")
	bob, bobToken := e.user("bob")
	g := testutil.CreateGroup(t, e.db, ann, "Hikers", false)
	testutil.AddMember(t, e.db, g, bob, models.RoleMember)

	status, env := e.do(http.MethodPost, "/groups/"+g.ID+"/leave", bobToken, nil)
	require.Equal(t, http.StatusOK, status, env.Meta.Message)
	assert.Equal(t, map[string]bool{"group_deleted": false}, decode[map[string]bool](t, env))

	status, _ = e.do(http.MethodPost, "/groups/"+g.ID+"/leave", bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = e.do(http.MethodPost, "/groups/"+g.ID+"/leave", annToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]bool{"group_deleted": true}, decode[map[string]bool](t, env))

	status, _ = e.do(http.MethodGet, "/groups/"+g.ID, annToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
