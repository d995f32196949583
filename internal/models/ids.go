package models

import (
	"strings"

	"github.com/google/uuid"
)

// ID prefixes for every persisted entity.
const (
	PrefixUser          = "user"
	PrefixFriendRequest = "friendRequest"
	PrefixFriend        = "friend"
	PrefixGroup         = "group"
	PrefixGroupMember   = "group-member"
	PrefixGroupRole     = "group-role"
	PrefixRole          = "role"
	PrefixMessage       = "message"
	PrefixGroupMessage  = "group-message"
	PrefixInviteLink    = "group-invite-link"
)

const idRandomLength = 16

// NewID returns "<prefix>-<16 random hex chars>".
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + raw[:idRandomLength]
}
