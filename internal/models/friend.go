package models

import (
	"time"

	"gorm.io/gorm"
)

// FriendRequest is a pending, directed intent to connect two users.
type FriendRequest struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	SenderID   string    `gorm:"size:64;not null;uniqueIndex:idx_friend_requests_pair" json:"sender_id"`
	Sender     *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID string    `gorm:"size:64;not null;uniqueIndex:idx_friend_requests_pair;index" json:"receiver_id"`
	Receiver   *User     `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate assigns a prefixed ID when none is set.
func (r *FriendRequest) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID(PrefixFriendRequest)
	}
	return nil
}

// Friend is a confirmed friendship stored as a single directed row.
// Lookups always match both (user_id, friend_id) orientations.
type Friend struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	UserID     string    `gorm:"size:64;not null;uniqueIndex:idx_friends_pair" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	FriendID   string    `gorm:"size:64;not null;uniqueIndex:idx_friends_pair;index" json:"friend_id"`
	FriendUser *User     `gorm:"foreignKey:FriendID" json:"friend,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate assigns a prefixed ID when none is set.
func (f *Friend) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = NewID(PrefixFriend)
	}
	return nil
}

// FriendList is the combined view returned by GET /friends.
type FriendList struct {
	Friends        []User          `json:"friends"`
	FriendRequests []FriendRequest `json:"friend_requests"`
	SentRequests   []FriendRequest `json:"sent_requests"`
}
