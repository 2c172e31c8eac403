package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/policy"
	"github.com/taskflow/task-tracker-api/internal/utils"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return db, mock
}

func TestAuditLogRepository_CreatePropagatesDriverError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `audit_logs`").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.AuditLog{
		Action:         models.AuditActionCreate,
		Resource:       models.AuditResourceTask,
		ResourceID:     1,
		UserID:         1,
		OrganizationID: 1,
	})

	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepository_CountFailureStopsPaging(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditLogRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `audit_logs`").WillReturnError(errors.New("connection reset"))

	entries, total, err := repo.FindByOrganization(context.Background(), 1, utils.NewPaginationParams(1, 10))

	assert.ErrorContains(t, err, "connection reset")
	assert.Nil(t, entries)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ListCountFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `tasks`").WillReturnError(errors.New("timeout"))

	actor := &policy.Actor{ID: 3, Role: models.RoleMember}
	_, _, err := repo.List(context.Background(), TaskFilter{Visibility: policy.VisibilityFor(actor)})

	assert.ErrorContains(t, err, "timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}
