package database

import "chatapp/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.FriendRequest{},
		&models.Friend{},
		&models.Role{},
		&models.Group{},
		&models.GroupMember{},
		&models.GroupRole{},
		&models.Message{},
		&models.GroupMessage{},
		&models.GroupMessageRead{},
	}
}
