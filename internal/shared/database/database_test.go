package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/shared/config"
)

func TestNew_SQLite(t *testing.T) {
	db, err := New(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        "file:database_test_new?mode=memory&cache=shared",
		AutoMigrate: true,
	})
	require.NoError(t, err)
	defer Close(db)

	for _, table := range []string{"worlds", "memberships", "tasks", "profiles"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(&config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNew_TranslatesDuplicateKey(t *testing.T) {
	db, err := New(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        "file:database_test_dup?mode=memory&cache=shared",
		AutoMigrate: true,
	})
	require.NoError(t, err)
	defer Close(db)

	worldID := uuid.New()
	first := &model.Membership{ID: uuid.New(), WorldID: worldID, UserID: "frodo", Role: model.MemberRoleMember, Status: model.MemberStatusPending}
	second := &model.Membership{ID: uuid.New(), WorldID: worldID, UserID: "frodo", Role: model.MemberRoleMember, Status: model.MemberStatusPending}

	require.NoError(t, db.Create(first).Error)
	err = db.Create(second).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
