package database

import (
	"context"
	"fmt"

	"chatapp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedRoles inserts the admin, moderator and member reference rows if missing.
func SeedRoles(ctx context.Context, db *gorm.DB) error {
	for _, name := range models.RoleNames {
		role := models.Role{Name: name, Description: "A role for " + name}
		err := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&role).Error
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}
	}
	return nil
}
