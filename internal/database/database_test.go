package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"chatapp/internal/config"
	"chatapp/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: "sqlite", DBSQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Dialector(&config.Config{DBDriver: "postgres", DBHost: "localhost", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestConnectSQLiteMigratesAndSeedsRoles(t *testing.T) {
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		DBSQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}
	db, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}

	var names []string
	require.NoError(t, db.Model(&models.Role{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"admin", "member", "moderator"}, names)
}

func TestSeedRolesIsIdempotent(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))

	ctx := context.Background()
	require.NoError(t, SeedRoles(ctx, db))
	require.NoError(t, SeedRoles(ctx, db))

	var roles []models.Role
	require.NoError(t, db.Find(&roles).Error)
	assert.Len(t, roles, 3)
	for _, r := range roles {
		assert.Equal(t, "A role for "+r.Name, r.Description)
	}
}

func TestPersistentModelsIncludesReadReceipts(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*models.GroupMessageRead); ok {
			found = true
		}
	}
	assert.True(t, found, "PersistentModels should include GroupMessageRead")
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, IsUniqueConstraintError(nil))
	assert.False(t, IsUniqueConstraintError(errors.New("boom")))
	assert.True(t, IsUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueConstraintError(fmt.Errorf("wrapped: %w", gorm.ErrDuplicatedKey)))

	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))
	require.NoError(t, db.Create(&models.User{Name: "Ann", Username: "ann", Email: "ann@x.com", Password: "x"}).Error)
	err := db.Create(&models.User{Name: "Ann", Username: "ann", Email: "other@x.com", Password: "x"}).Error
	assert.True(t, IsUniqueConstraintError(err))
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"m/000001_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"m/000001_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"m/000002_gadgets.up.sql":   {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY);")},
		"m/000002_gadgets.down.sql": {Data: []byte("DROP TABLE gadgets;")},
		"m/README.md":               {Data: []byte("ignored")},
	}
}

func TestLoadMigrations(t *testing.T) {
	set, err := LoadMigrations(testMigrations(), "m")
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, "000001_widgets", set[0].String())
	assert.Equal(t, 2, set[1].Version)
	assert.Contains(t, set[1].DownScript, "DROP TABLE gadgets")

	_, err = LoadMigrations(fstest.MapFS{
		"m/000003_orphan.up.sql": {Data: []byte("SELECT 1;")},
	}, "m")
	assert.Error(t, err, "missing down script")

	_, err = LoadMigrations(fstest.MapFS{
		"m/abc_bad.up.sql":   {Data: []byte("SELECT 1;")},
		"m/abc_bad.down.sql": {Data: []byte("SELECT 1;")},
	}, "m")
	assert.Error(t, err, "non-numeric version")
}

func TestEmbeddedMigrations(t *testing.T) {
	set, err := Migrations()
	require.NoError(t, err)
	require.Len(t, set, 3)
	assert.Equal(t, "init_schema", set[0].Name)
	assert.Equal(t, "seed_roles", set[1].Name)
	assert.Equal(t, "unordered_pair_indexes", set[2].Name)
	assert.Contains(t, set[2].UpScript, "LEAST(sender_id, receiver_id)")
	assert.Contains(t, set[0].UpScript, "group_message_reads")
}

func TestMigratorUpDownStatus(t *testing.T) {
	db := openSQLite(t)
	set, err := LoadMigrations(testMigrations(), "m")
	require.NoError(t, err)

	m, err := NewMigrator(db, set)
	require.NoError(t, err)
	ctx := context.Background()

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable("gadgets"))

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	rolled, err := m.Down(ctx)
	require.NoError(t, err)
	assert.True(t, rolled)
	assert.False(t, db.Migrator().HasTable("gadgets"))
	assert.True(t, db.Migrator().HasTable("widgets"))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied)
	assert.False(t, status[1].Applied)
}

func TestValidateAppliedVersions(t *testing.T) {
	set := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, set))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, set))

	err := validateAppliedVersions([]int{1, 7, 5}, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000005, 000007")
}
