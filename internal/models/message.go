package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a direct message between two friends.
type Message struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	SenderID   string    `gorm:"size:64;not null;index:idx_messages_pair" json:"sender_id"`
	Sender     *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID string    `gorm:"size:64;not null;index:idx_messages_pair" json:"receiver_id"`
	Receiver   *User     `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
	IsEdited   bool      `gorm:"not null;default:false" json:"is_edited"`
	IsDeleted  bool      `gorm:"not null;default:false;index" json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate assigns a prefixed ID when none is set.
func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID(PrefixMessage)
	}
	return nil
}

// GroupMessage is a message posted to a group. Reads holds the read-by set;
// ReadBy is its serialized form.
type GroupMessage struct {
	ID        string             `gorm:"primaryKey;size:64" json:"id"`
	GroupID   string             `gorm:"size:64;not null;index" json:"group_id"`
	SenderID  string             `gorm:"size:64;not null;index" json:"sender_id"`
	Sender    *User              `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Message   string             `gorm:"type:text;not null" json:"message"`
	IsRead    bool               `gorm:"not null;default:false" json:"is_read"`
	IsEdited  bool               `gorm:"not null;default:false" json:"is_edited"`
	IsDeleted bool               `gorm:"not null;default:false;index" json:"is_deleted"`
	Reads     []GroupMessageRead `gorm:"foreignKey:GroupMessageID;constraint:OnDelete:CASCADE" json:"-"`
	ReadBy    []string           `gorm:"-" json:"read_by"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// BeforeCreate assigns a prefixed ID when none is set.
func (m *GroupMessage) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID(PrefixGroupMessage)
	}
	return nil
}

// AfterFind fills ReadBy from the preloaded Reads.
func (m *GroupMessage) AfterFind(_ *gorm.DB) error {
	m.SyncReadBy()
	return nil
}

// SyncReadBy rebuilds ReadBy from Reads.
func (m *GroupMessage) SyncReadBy() {
	m.ReadBy = make([]string, 0, len(m.Reads))
	for _, r := range m.Reads {
		m.ReadBy = append(m.ReadBy, r.MemberID)
	}
}

// HasReader reports whether memberID is in the read-by set.
func (m *GroupMessage) HasReader(memberID string) bool {
	for _, r := range m.Reads {
		if r.MemberID == memberID {
			return true
		}
	}
	return false
}

// GroupMessageRead is one acknowledgement in a group message's read-by set.
type GroupMessageRead struct {
	GroupMessageID string    `gorm:"primaryKey;size:64" json:"group_message_id"`
	MemberID       string    `gorm:"primaryKey;size:64" json:"member_id"`
	ReadAt         time.Time `json:"read_at"`
}
