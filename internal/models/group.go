package models

import (
	"time"

	"gorm.io/gorm"
)

// Fixed role names seeded into the roles table.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

// RoleNames lists every seeded role.
var RoleNames = []string{RoleAdmin, RoleModerator, RoleMember}

// Group is a chat group with an invite link.
type Group struct {
	ID          string         `gorm:"primaryKey;size:64" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"size:255" json:"description"`
	GroupImage  string         `gorm:"size:255" json:"group_image"`
	IsPrivate   bool           `gorm:"not null;default:false" json:"is_private"`
	InviteLink  string         `gorm:"size:64;uniqueIndex;not null" json:"invite_link,omitempty"`
	CreatedBy   string         `gorm:"size:64;index;not null" json:"created_by"`
	UpdatedBy   string         `gorm:"size:64" json:"updated_by"`
	Members     []GroupMember  `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Messages    []GroupMessage `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate assigns a prefixed ID and invite link when none is set.
func (g *Group) BeforeCreate(_ *gorm.DB) error {
	if g.ID == "" {
		g.ID = NewID(PrefixGroup)
	}
	if g.InviteLink == "" {
		g.InviteLink = NewID(PrefixInviteLink)
	}
	return nil
}

// GroupMember is one membership row; it owns exactly one GroupRole.
type GroupMember struct {
	ID        string     `gorm:"primaryKey;size:64" json:"id"`
	GroupID   string     `gorm:"size:64;not null;uniqueIndex:idx_group_members_pair" json:"group_id"`
	MemberID  string     `gorm:"size:64;not null;uniqueIndex:idx_group_members_pair;index" json:"member_id"`
	Member    *User      `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Role      *GroupRole `gorm:"foreignKey:GroupMemberID;constraint:OnDelete:CASCADE" json:"role,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a prefixed ID when none is set.
func (m *GroupMember) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID(PrefixGroupMember)
	}
	return nil
}

// Role is a fixed reference row (admin, moderator, member).
type Role struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a prefixed ID when none is set.
func (r *Role) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID(PrefixRole)
	}
	return nil
}

// GroupRole assigns a Role to a GroupMember.
type GroupRole struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	GroupMemberID string    `gorm:"size:64;not null;uniqueIndex" json:"group_member_id"`
	GroupID       string    `gorm:"size:64;not null;index:idx_group_roles_lookup" json:"group_id"`
	MemberID      string    `gorm:"size:64;not null;index:idx_group_roles_lookup" json:"member_id"`
	RoleID        string    `gorm:"size:64;not null" json:"role_id"`
	Role          *Role     `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate assigns a prefixed ID when none is set.
func (r *GroupRole) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID(PrefixGroupRole)
	}
	return nil
}

// ResolveImage rewrites the stored group image key into a public URL in place,
// together with the avatars of any loaded members and message senders.
func (g *Group) ResolveImage(resolve URLResolver) {
	if g == nil || resolve == nil {
		return
	}
	if g.GroupImage != "" && !isAbsoluteURL(g.GroupImage) {
		g.GroupImage = resolve(g.GroupImage)
	}
	for i := range g.Members {
		g.Members[i].Member.ResolveAvatar(resolve)
	}
	for i := range g.Messages {
		g.Messages[i].Sender.ResolveAvatar(resolve)
	}
}
