package service

import "chatapp/internal/models"

// Capability is an action a group role may be allowed to perform.
type Capability string

const (
	CapViewGroup        Capability = "view_group"
	CapUpdateGroup      Capability = "update_group"
	CapUpdateGroupImage Capability = "update_group_image"
	CapDeleteGroup      Capability = "delete_group"
	CapLeaveGroup       Capability = "leave_group"
	CapSendGroupMessage Capability = "send_group_message"
)

// roleCapabilities enumerates every role's actions explicitly. Roles do not
// inherit from each other.
var roleCapabilities = map[string]map[Capability]bool{
	models.RoleAdmin: {
		CapViewGroup:        true,
		CapUpdateGroup:      true,
		CapUpdateGroupImage: true,
		CapDeleteGroup:      true,
		CapLeaveGroup:       true,
		CapSendGroupMessage: true,
	},
	models.RoleModerator: {
		CapViewGroup:        true,
		CapUpdateGroup:      true,
		CapLeaveGroup:       true,
		CapSendGroupMessage: true,
	},
	models.RoleMember: {
		CapViewGroup:        true,
		CapLeaveGroup:       true,
		CapSendGroupMessage: true,
	},
}

// Can reports whether role grants capability.
func Can(role string, capability Capability) bool {
	return roleCapabilities[role][capability]
}

// memberRole returns the role name carried by a loaded membership.
func memberRole(m *models.GroupMember) string {
	if m == nil || m.Role == nil || m.Role.Role == nil {
		return ""
	}
	return m.Role.Role.Name
}
