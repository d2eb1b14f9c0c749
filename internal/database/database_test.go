package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/utils"
)

func TestSqlitePath(t *testing.T) {
	cases := map[string]struct {
		path string
		ok   bool
	}{
		"sqlite::memory:":       {":memory:", true},
		"sqlite://data/app.db":  {"data/app.db", true},
		"local.db":              {"local.db", true},
		"postgres://u:p@h/db":   {"", false},
		"host=localhost user=u": {"", false},
	}
	for dsn, want := range cases {
		path, ok := sqlitePath(dsn)
		assert.Equal(t, want.ok, ok, dsn)
		assert.Equal(t, want.path, path, dsn)
	}
}

func TestMigrateAndSeed(t *testing.T) {
	db, err := Open("sqlite::memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	cfg := SeedConfig{
		Region:        "Toshkent",
		AdminPhone:    "+998901234567",
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin123",
	}
	require.NoError(t, Seed(context.Background(), db, cfg))
	// a second run must not duplicate anything
	require.NoError(t, Seed(context.Background(), db, cfg))

	var regions, users int64
	db.Model(&models.Region{}).Count(&regions)
	db.Model(&models.User{}).Count(&users)
	assert.Equal(t, int64(1), regions)
	assert.Equal(t, int64(1), users)

	var admin models.User
	require.NoError(t, db.First(&admin, "phone = ?", cfg.AdminPhone).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, utils.CheckPassword(admin.PasswordHash, "admin123"))
}

func TestSeedSkipsAdminWithoutPassword(t *testing.T) {
	db, err := Open("sqlite::memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, Seed(context.Background(), db, SeedConfig{Region: "Toshkent", AdminPhone: "+998901234567"}))

	var users int64
	db.Model(&models.User{}).Count(&users)
	assert.Zero(t, users)
}
