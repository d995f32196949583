// Package models defines the persisted entities, the error taxonomy and the
// response envelope shared by every layer.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is a registered account.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Username  string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Status    string    `gorm:"size:100" json:"status"`
	AboutMe   string    `gorm:"type:text" json:"about_me"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a prefixed ID when none is set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID(PrefixUser)
	}
	return nil
}

// URLResolver turns a stored upload key into a public URL.
type URLResolver func(key string) string

// ResolveAvatar rewrites the stored avatar key into a public URL in place.
// Call it only on values that are about to be serialized, never before a save.
func (u *User) ResolveAvatar(resolve URLResolver) {
	if u == nil || u.Avatar == "" || resolve == nil || isAbsoluteURL(u.Avatar) {
		return
	}
	u.Avatar = resolve(u.Avatar)
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ResolveAvatars applies ResolveAvatar to every user in users.
func ResolveAvatars(users []User, resolve URLResolver) {
	for i := range users {
		users[i].ResolveAvatar(resolve)
	}
}
