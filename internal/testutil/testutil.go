// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"chatapp/internal/database"
	"chatapp/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPassword is the plaintext password of every user created by CreateUser.
const DefaultPassword = "password123"

// NewTestDB opens a private shared-cache in-memory SQLite database, migrates
// every model and seeds the fixed roles. Code running inside a transaction
// must use only the transaction handle: the pool has a single connection.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=0", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedRoles(context.Background(), db))
	return db
}

// NewTestRedis starts a miniredis server and returns it with a connected client.
func NewTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// CreateUser inserts a user whose password is DefaultPassword.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// MakeFriends stores a friendship row between a and b.
func MakeFriends(t testing.TB, db *gorm.DB, a, b *models.User) {
	t.Helper()
	require.NoError(t, db.Create(&models.Friend{UserID: a.ID, FriendID: b.ID}).Error)
}

// CreateGroup creates a group owned by owner, who becomes its admin.
func CreateGroup(t testing.TB, db *gorm.DB, owner *models.User, name string, private bool) *models.Group {
	t.Helper()
	g := &models.Group{Name: name, IsPrivate: private, CreatedBy: owner.ID, UpdatedBy: owner.ID}
	require.NoError(t, db.Omit("Members", "Messages").Create(g).Error)
	AddMember(t, db, g, owner, models.RoleAdmin)
	return g
}

// AddMember adds user to g with the given role.
func AddMember(t testing.TB, db *gorm.DB, g *models.Group, user *models.User, role string) *models.GroupMember {
	t.Helper()
	var r models.Role
	require.NoError(t, db.Where("name = ?", role).First(&r).Error)

	m := &models.GroupMember{GroupID: g.ID, MemberID: user.ID}
	require.NoError(t, db.Omit("Member", "Role").Create(m).Error)
	require.NoError(t, db.Omit("Role").Create(&models.GroupRole{
		GroupMemberID: m.ID,
		GroupID:       g.ID,
		MemberID:      user.ID,
		RoleID:        r.ID,
	}).Error)
	return m
}
