package service

import (
	"testing"

	"chatapp/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCapabilityTable(t *testing.T) {
	all := []Capability{CapViewGroup, CapUpdateGroup, CapUpdateGroupImage, CapDeleteGroup, CapLeaveGroup, CapSendGroupMessage}
	want := map[string][]Capability{
		models.RoleAdmin:     all,
		models.RoleModerator: {CapViewGroup, CapUpdateGroup, CapLeaveGroup, CapSendGroupMessage},
		models.RoleMember:    {CapViewGroup, CapLeaveGroup, CapSendGroupMessage},
	}

	for role, granted := range want {
		allowed := make(map[Capability]bool)
		for _, c := range granted {
			allowed[c] = true
		}
		for _, c := range all {
			assert.Equal(t, allowed[c], Can(role, c), "%s / %s", role, c)
		}
	}

	assert.False(t, Can("", CapViewGroup))
	assert.False(t, Can("owner", CapDeleteGroup))
}

func TestMemberRole(t *testing.T) {
	assert.Empty(t, memberRole(nil))
	assert.Empty(t, memberRole(&models.GroupMember{}))
	assert.Equal(t, models.RoleModerator, memberRole(&models.GroupMember{
		Role: &models.GroupRole{Role: &models.Role{Name: models.RoleModerator}},
	}))
}
