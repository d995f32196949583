package server

import (
	"net/http"
	"testing"

	"chatapp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRequestFlow(t *testing.T) {
	e := newTestEnv(t)
	ann, annToken := e.user("ann")
	bob, bobToken := e.user("bob")

	status, env := e.do(http.MethodPost, "/friends/"+bob.ID, annToken, nil)
	require.Equal(t, http.StatusCreated, status, env.Meta.Message)
	req := decode[models.FriendRequest](t, env)
	assert.Equal(t, ann.ID, req.SenderID)
	assert.Equal(t, bob.ID, req.ReceiverID)

	status, env = e.do(http.MethodPost, "/friends/"+bob.ID, annToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You have already sent friend request to this user", env.Meta.Message)

	status, env = e.do(http.MethodPost, "/friends/"+ann.ID, bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "This user has already sent you a friend request", env.Meta.Message)

	status, env = e.do(http.MethodGet, "/friends", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[models.FriendList](t, env)
	require.Len(t, list.FriendRequests, 1)
	assert.Equal(t, ann.ID, list.FriendRequests[0].SenderID)
	assert.Empty(t, list.Friends)

	status, env = e.do(http.MethodPost, "/friends/"+ann.ID+"/accept", bobToken, nil)
	require.Equal(t, http.StatusCreated, status, env.Meta.Message)

	status, env = e.do(http.MethodGet, "/friends", annToken, nil)
	require.Equal(t, http.StatusOK, status)
	list = decode[models.FriendList](t, env)
	require.Len(t, list.Friends, 1)
	assert.Equal(t, bob.ID, list.Friends[0].ID)
	assert.Empty(t, list.SentRequests)

	status, env = e.do(http.MethodPost, "/friends/"+bob.ID, annToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You are already friend with this user", env.Meta.Message)

	status, _ = e.do(http.MethodDelete, "/friends/"+ann.ID, bobToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = e.do(http.MethodDelete, "/friends/"+ann.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Friend not found", env.Meta.Message)
}

func TestFriendRequestRejectAndCancel(t *testing.T) {
	e := newTestEnv(t)
	ann, annToken := e.user("ann")
	bob, bobToken := e.user("bob")

	status, _ := e.do(http.MethodPost, "/friends/"+bob.ID, annToken, nil)
	require.Equal(t, http.StatusCreated, status)
	status, _ = e.do(http.MethodPost, "/friends/"+ann.ID+"/reject", bobToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = e.do(http.MethodPost, "/friends/"+bob.ID, annToken, nil)
	require.Equal(t, http.StatusCreated, status)
	status, _ = e.do(http.MethodPost, "/friends/"+bob.ID+"/cancel", annToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := e.do(http.MethodPost, "/friends/"+ann.ID+"/accept", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Friend request not found", env.Meta.Message)
}

func TestFriendRequestEdgeCases(t *testing.T) {
	e := newTestEnv(t)
	ann, token := e.user("ann")

	status, env := e.do(http.MethodPost, "/friends/"+ann.ID, token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot send friend request to yourself", env.Meta.Message)

	status, env = e.do(http.MethodPost, "/friends/user-0000000000000000", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", env.Meta.Message)
}
