package database

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/task-tracker-api/internal/config"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(&config.Config{DBDriver: "sqlite", DatabaseURL: ":memory:", Environment: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })
	require.NoError(t, Migrate(db))
	return db
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestMigrate_IsRepeatable(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	for _, idx := range indexes {
		assert.True(t, db.Migrator().HasIndex(idx.model, idx.name), idx.name)
	}
}

func TestSeed(t *testing.T) {
	db := openTestDB(t)

	result, err := Seed(db, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Organization)
	assert.Equal(t, "Test Organization", result.Organization.Name)
	require.Len(t, result.Users, 3)

	var owner models.User
	require.NoError(t, db.Where("email = ?", "owner@test.com").First(&owner).Error)
	assert.Equal(t, models.RoleOwner, owner.Role)
	require.NotNil(t, owner.OrganizationID)
	assert.Equal(t, result.Organization.ID, *owner.OrganizationID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte("123456")))

	var audits []models.AuditLog
	require.NoError(t, db.Where("resource = ? AND action = ?", models.AuditResourceUser, models.AuditActionCreate).Find(&audits).Error)
	require.Len(t, audits, 3)
	for _, entry := range audits {
		var changes map[string]string
		require.NoError(t, json.Unmarshal(entry.Changes, &changes))
		assert.NotEmpty(t, changes["email"])
	}

	again, err := Seed(db, nil)
	require.NoError(t, err)
	assert.Nil(t, again.Organization)
	assert.Empty(t, again.Users)

	var users int64
	db.Model(&models.User{}).Count(&users)
	assert.Equal(t, int64(3), users)
}

func TestSeed_AuditFailureKeepsUsers(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	result, err := Seed(db, logger)
	require.NoError(t, err)
	require.NotNil(t, result.Organization)
	assert.Len(t, result.Users, 3)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(3), users)
	assert.Contains(t, logs.String(), "failed to write audit log")
}

func TestPaginateAndNewestFirst(t *testing.T) {
	db := openTestDB(t)

	org := uint64(1)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.Task{Title: "t", Status: models.TaskStatusNew, Category: models.TaskCategoryWork, OrganizationID: &org}).Error)
	}

	var page []models.Task
	err := db.Scopes(NewestFirst, Paginate(utils.NewPaginationParams(2, 2))).Find(&page).Error
	require.NoError(t, err)
	require.Len(t, page, 2)
	// Newest first: 5 4 / 3 2 / 1.
	assert.Equal(t, uint64(3), page[0].ID)
	assert.Equal(t, uint64(2), page[1].ID)
}
