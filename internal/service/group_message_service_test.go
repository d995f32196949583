package service

import (
	"context"
	"testing"

	"chatapp/internal/models"
	"chatapp/internal/notifications"
	"chatapp/internal/repository"
	"chatapp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func reads(ids ...string) []models.GroupMessageRead {
	out := make([]models.GroupMessageRead, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.GroupMessageRead{MemberID: id})
	}
	return out
}

func memberSet(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestIsFullyRead(t *testing.T) {
	tests := []struct {
		name    string
		reads   []models.GroupMessageRead
		members map[string]struct{}
		want    bool
	}{
		{"every recipient read", reads("b", "c"), memberSet("a", "b", "c"), true},
		{"one recipient missing", reads("b"), memberSet("a", "b", "c"), false},
		{"sender marker does not count", reads("a", "b"), memberSet("a", "b", "c"), false},
		{"former member marker does not count", reads("b", "x"), memberSet("a", "b", "c"), false},
		{"member left lowers threshold", reads("b"), memberSet("a", "b"), true},
		{"sender alone is never read", nil, memberSet("a"), false},
		{"sender left the group", reads("b", "c"), memberSet("b", "c"), true},
		{"duplicate markers count once", reads("b", "b"), memberSet("a", "b", "c"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &models.GroupMessage{SenderID: "a", Reads: tt.reads}
			assert.Equal(t, tt.want, IsFullyRead(msg, tt.members))
		})
	}
}

type groupMessageFixture struct {
	db       *gorm.DB
	svc      *GroupMessageService
	groups   repository.GroupRepository
	pub      *recordingPublisher
	group    *models.Group
	ann, bob *models.User
	cat      *models.User
}

func newGroupMessageFixture(t *testing.T) *groupMessageFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &groupMessageFixture{db: db, pub: &recordingPublisher{}}
	f.ann = testutil.CreateUser(t, db, "ann")
	f.bob = testutil.CreateUser(t, db, "bob")
	f.cat = testutil.CreateUser(t, db, "cat")
	f.group = testutil.CreateGroup(t, db, f.ann, "Gophers", false)
	testutil.AddMember(t, db, f.group, f.bob, models.RoleMember)
	testutil.AddMember(t, db, f.group, f.cat, models.RoleModerator)

	f.groups = repository.NewGroupRepository(db)
	f.svc = NewGroupMessageService(repository.NewGroupMessageRepository(db), f.groups, f.pub, nil)
	return f
}

func findGroupMessage(t *testing.T, msgs []models.GroupMessage, id string) models.GroupMessage {
	t.Helper()
	for _, m := range msgs {
		if m.ID == id {
			return m
		}
	}
	t.Fatalf("message %s not listed", id)
	return models.GroupMessage{}
}

func TestGroupMessageServiceAuthorize(t *testing.T) {
	f := newGroupMessageFixture(t)
	ctx := context.Background()
	outsider := testutil.CreateUser(t, f.db, "dan")

	require.NoError(t, f.svc.Authorize(ctx, f.group.ID, f.bob.ID))
	assertAppError(t, f.svc.Authorize(ctx, "group-missing", f.bob.ID), models.CodeNotFound, "Group not found or already deleted")
	assertAppError(t, f.svc.Authorize(ctx, f.group.ID, outsider.ID), models.CodeForbidden, "You are not a member of this group")
}

func TestGroupMessageServiceSendNotifiesOtherMembers(t *testing.T) {
	f := newGroupMessageFixture(t)

	msg, err := f.svc.Send(context.Background(), f.group.ID, f.ann.ID, "  hello gophers  ")
	require.NoError(t, err)
	assert.Equal(t, "hello gophers", msg.Message)
	assert.Equal(t, "ann", msg.Sender.Username)
	assert.Empty(t, msg.ReadBy)
	assert.NotNil(t, msg.ReadBy)

	var recipients []string
	for _, ev := range f.pub.all() {
		assert.Equal(t, notifications.EventGroupMessageCreated, ev.Event)
		recipients = append(recipients, ev.UserID)
	}
	assert.ElementsMatch(t, []string{f.bob.ID, f.cat.ID}, recipients)

	_, err = f.svc.Send(context.Background(), f.group.ID, f.ann.ID, "   ")
	appErr := models.AsAppError(err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "Content is required", appErr.Fields[0].Message)
}

func TestGroupMessageServiceReadReceiptsFollowMembership(t *testing.T) {
	f := newGroupMessageFixture(t)
	ctx := context.Background()

	sent, err := f.svc.Send(ctx, f.group.ID, f.ann.ID, "first")
	require.NoError(t, err)

	// Sender listing adds no marker.
	msgs, err := f.svc.List(ctx, f.group.ID, f.ann.ID)
	require.NoError(t, err)
	m := findGroupMessage(t, msgs, sent.ID)
	assert.Empty(t, m.ReadBy)
	assert.False(t, m.IsRead)

	msgs, err = f.svc.List(ctx, f.group.ID, f.bob.ID)
	require.NoError(t, err)
	m = findGroupMessage(t, msgs, sent.ID)
	assert.Equal(t, []string{f.bob.ID}, m.ReadBy)
	assert.False(t, m.IsRead)

	// Listing again is idempotent.
	msgs, err = f.svc.List(ctx, f.group.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, findGroupMessage(t, msgs, sent.ID).ReadBy, 1)

	msgs, err = f.svc.List(ctx, f.group.ID, f.cat.ID)
	require.NoError(t, err)
	m = findGroupMessage(t, msgs, sent.ID)
	assert.ElementsMatch(t, []string{f.bob.ID, f.cat.ID}, m.ReadBy)
	assert.True(t, m.IsRead)

	var stored models.GroupMessage
	require.NoError(t, f.db.First(&stored, "id = ?", sent.ID).Error)
	assert.True(t, stored.IsRead)

	// A new member raises the threshold again.
	dan := testutil.CreateUser(t, f.db, "dan")
	testutil.AddMember(t, f.db, f.group, dan, models.RoleMember)
	msgs, err = f.svc.List(ctx, f.group.ID, f.ann.ID)
	require.NoError(t, err)
	assert.False(t, findGroupMessage(t, msgs, sent.ID).IsRead)

	// Dan leaving lowers it back.
	_, err = f.groups.RemoveMember(ctx, f.group.ID, dan.ID)
	require.NoError(t, err)
	msgs, err = f.svc.List(ctx, f.group.ID, f.ann.ID)
	require.NoError(t, err)
	assert.True(t, findGroupMessage(t, msgs, sent.ID).IsRead)
}

func TestGroupMessageServiceLeavingMemberCompletesRead(t *testing.T) {
	f := newGroupMessageFixture(t)
	ctx := context.Background()

	sent, err := f.svc.Send(ctx, f.group.ID, f.ann.ID, "second")
	require.NoError(t, err)
	_, err = f.svc.List(ctx, f.group.ID, f.bob.ID)
	require.NoError(t, err)

	_, err = f.groups.RemoveMember(ctx, f.group.ID, f.cat.ID)
	require.NoError(t, err)

	msgs, err := f.svc.List(ctx, f.group.ID, f.ann.ID)
	require.NoError(t, err)
	assert.True(t, findGroupMessage(t, msgs, sent.ID).IsRead)
}

func TestGroupMessageServiceMutations(t *testing.T) {
	f := newGroupMessageFixture(t)
	ctx := context.Background()

	sent, err := f.svc.Send(ctx, f.group.ID, f.ann.ID, "original")
	require.NoError(t, err)

	_, err = f.svc.Edit(ctx, f.group.ID, f.bob.ID, sent.ID, "hijack")
	assertAppError(t, err, models.CodeNotFound, "Message not found or already deleted")

	edited, err := f.svc.Edit(ctx, f.group.ID, f.ann.ID, sent.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Message)
	assert.True(t, edited.IsEdited)

	deleted, err := f.svc.SoftDelete(ctx, f.group.ID, f.ann.ID, sent.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.True(t, deleted.IsEdited)

	msgs, err := f.svc.List(ctx, f.group.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = f.svc.Edit(ctx, f.group.ID, f.ann.ID, sent.ID, "too late")
	assertAppError(t, err, models.CodeNotFound, "Message not found or already deleted")

	restored, err := f.svc.Restore(ctx, f.group.ID, f.ann.ID, sent.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)

	_, err = f.svc.List(ctx, f.group.ID, f.bob.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Destroy(ctx, f.group.ID, f.ann.ID, sent.ID))
	var n int64
	f.db.Model(&models.GroupMessageRead{}).Where("group_message_id = ?", sent.ID).Count(&n)
	assert.Zero(t, n)

	assertAppError(t, f.svc.Destroy(ctx, f.group.ID, f.ann.ID, sent.ID), models.CodeNotFound, "Message not found or already deleted")
}
