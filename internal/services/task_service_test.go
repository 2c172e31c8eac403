package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/policy"
	"github.com/taskflow/task-tracker-api/internal/repository"
	"github.com/taskflow/task-tracker-api/internal/testutil"
	"github.com/taskflow/task-tracker-api/internal/workflow"
	"gorm.io/gorm"
)

// MockRecorder is a mock implementation of Recorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, entry AuditEntry) (*models.AuditLog, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditLog), args.Error(1)
}

type TaskServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	audit    *AuditService
	service  *TaskService
	logs     *bytes.Buffer
	owner    *models.User
	admin    *models.User
	viewer   *models.User
	member   *models.User
	stranger *models.User
}

func (s *TaskServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.logs = &bytes.Buffer{}

	s.audit = NewAuditService(repository.NewAuditLogRepository(s.db))
	s.service = s.newService(s.audit, false)

	s.owner = s.createUser("owner@test.com", models.RoleOwner, ptr(1))
	s.admin = s.createUser("admin@test.com", models.RoleAdmin, ptr(1))
	s.viewer = s.createUser("viewer@test.com", models.RoleViewer, ptr(1))
	s.member = s.createUser("member@test.com", models.RoleMember, nil)
	s.stranger = s.createUser("stranger@test.com", models.RoleAdmin, ptr(2))
}

func (s *TaskServiceTestSuite) newService(recorder Recorder, strict bool) *TaskService {
	return NewTaskService(
		repository.NewTaskRepository(s.db),
		repository.NewUserRepository(s.db),
		recorder,
		TaskServiceConfig{
			Logger:        slog.New(slog.NewJSONHandler(s.logs, nil)),
			StrictTenancy: strict,
		},
	)
}

func ptr(v uint64) *uint64 { return &v }

func (s *TaskServiceTestSuite) createUser(email string, role models.UserRole, org *uint64) *models.User {
	user := &models.User{Email: email, PasswordHash: "hash", Role: role, OrganizationID: org}
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func callerFor(user *models.User) *Caller {
	return &Caller{
		Actor:     policy.Actor{ID: user.ID, Role: user.Role, OrganizationID: user.OrganizationID},
		IPAddress: "10.0.0.1",
		UserAgent: "go-test",
	}
}

func (s *TaskServiceTestSuite) create(user *models.User, input CreateTaskInput) *models.Task {
	task, err := s.service.CreateTask(s.ctx, callerFor(user), input)
	s.Require().NoError(err)
	return task
}

func (s *TaskServiceTestSuite) auditRows(action models.AuditAction) []models.AuditLog {
	var rows []models.AuditLog
	s.Require().NoError(s.db.Where("action = ?", action).Order("id ASC").Find(&rows).Error)
	return rows
}

func (s *TaskServiceTestSuite) TestCreateThenGet_RoundTrip() {
	category := models.TaskCategoryWork
	created := s.create(s.owner, CreateTaskInput{Title: "Write proposal", Category: &category, OrganizationID: ptr(1)})

	got, err := s.service.GetTask(s.ctx, callerFor(s.owner), created.ID)
	s.Require().NoError(err)
	s.Equal("Write proposal", got.Title)
	s.Equal(models.TaskCategoryWork, got.Category)
	s.Require().NotNil(got.OrganizationID)
	s.Equal(uint64(1), *got.OrganizationID)
	s.Equal(models.TaskStatusNew, got.Status)
	s.False(got.Completed)
	s.Require().NotNil(got.Creator)
	s.Equal(s.owner.Email, got.Creator.Email)

	rows := s.auditRows(models.AuditActionCreate)
	s.Require().Len(rows, 1)
	s.Equal(models.AuditResourceTask, rows[0].Resource)
	s.Equal(created.ID, rows[0].ResourceID)
	s.Equal(s.owner.ID, rows[0].UserID)
	s.Equal("10.0.0.1", rows[0].IPAddress)
	s.Equal("go-test", rows[0].UserAgent)
}

func (s *TaskServiceTestSuite) TestCreate_AuditFailureDoesNotBlock() {
	recorder := new(MockRecorder)
	recorder.On("Record", mock.Anything, mock.Anything).Return(nil, errors.New("audit store down"))
	service := s.newService(recorder, false)

	task, err := service.CreateTask(s.ctx, callerFor(s.admin), CreateTaskInput{Title: "still created"})

	s.Require().NoError(err)
	s.NotZero(task.ID)
	var count int64
	s.db.Model(&models.Task{}).Count(&count)
	s.Equal(int64(1), count)
	s.Contains(s.logs.String(), "failed to write audit log")
	s.Contains(s.logs.String(), "audit store down")
	recorder.AssertExpectations(s.T())
}

func (s *TaskServiceTestSuite) TestCreate_AuditPanicDoesNotBlock() {
	recorder := new(MockRecorder)
	recorder.On("Record", mock.Anything, mock.Anything).Panic("boom")
	service := s.newService(recorder, false)

	task, err := service.CreateTask(s.ctx, callerFor(s.admin), CreateTaskInput{Title: "still created"})

	s.Require().NoError(err)
	s.NotZero(task.ID)
	s.Contains(s.logs.String(), "audit recorder panicked")
}

func (s *TaskServiceTestSuite) TestCreate_Validation() {
	_, err := s.service.CreateTask(s.ctx, callerFor(s.owner), CreateTaskInput{Title: "   "})
	s.ErrorIs(err, ErrTitleRequired)

	bad := models.TaskCategory("chores")
	_, err = s.service.CreateTask(s.ctx, callerFor(s.owner), CreateTaskInput{Title: "t", Category: &bad})
	s.ErrorIs(err, ErrInvalidCategory)

	done := models.TaskStatusCompleted
	_, err = s.service.CreateTask(s.ctx, callerFor(s.owner), CreateTaskInput{Title: "t", Status: &done, Completed: boolPtr(false)})
	s.ErrorIs(err, workflow.ErrStatusConflict)

	_, err = s.service.CreateTask(s.ctx, callerFor(s.owner), CreateTaskInput{Title: "t", AssignedTo: &s.stranger.ID})
	s.ErrorIs(err, ErrInvalidAssignee)

	_, err = s.service.CreateTask(s.ctx, callerFor(s.owner), CreateTaskInput{Title: "t", OrganizationID: ptr(2)})
	s.ErrorIs(err, ErrOrganizationMismatch)

	_, err = s.service.CreateTask(s.ctx, callerFor(s.viewer), CreateTaskInput{Title: "t"})
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = s.service.CreateTask(s.ctx, nil, CreateTaskInput{Title: "t"})
	s.ErrorIs(err, ErrUnauthenticated)
}

func (s *TaskServiceTestSuite) TestTenantDefault() {
	// Neither the member nor the task carries an organization.
	task := s.create(s.member, CreateTaskInput{Title: "unscoped"})
	s.Require().NotNil(task.OrganizationID)
	s.Equal(uint64(1), *task.OrganizationID)
	s.Require().NoError(s.db.Model(&models.Task{}).Where("id = ?", task.ID).Update("organization_id", nil).Error)

	got, err := s.service.GetTask(s.ctx, callerFor(s.admin), task.ID)
	s.Require().NoError(err)
	s.Nil(got.OrganizationID)

	title := "renamed by admin"
	_, err = s.service.UpdateTask(s.ctx, callerFor(s.admin), task.ID, UpdateTaskInput{Title: &title})
	s.NoError(err)

	_, err = s.service.GetTask(s.ctx, callerFor(s.stranger), task.ID)
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestStrictTenancy() {
	strict := s.newService(s.audit, true)

	_, err := strict.CreateTask(s.ctx, callerFor(s.member), CreateTaskInput{Title: "t"})
	s.ErrorIs(err, ErrOrganizationRequired)

	task, err := strict.CreateTask(s.ctx, callerFor(s.stranger), CreateTaskInput{Title: "t"})
	s.Require().NoError(err)
	s.Equal(uint64(2), *task.OrganizationID)
}

func (s *TaskServiceTestSuite) TestUpdate_UncompletingReturnsToInProgress() {
	done := models.TaskStatusCompleted
	task := s.create(s.owner, CreateTaskInput{Title: "t", Status: &done})
	s.Require().True(task.Completed)

	updated, err := s.service.UpdateTask(s.ctx, callerFor(s.owner), task.ID, UpdateTaskInput{Completed: boolPtr(false)})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, updated.Status)
	s.False(updated.Completed)

	rows := s.auditRows(models.AuditActionStatusChange)
	s.Require().Len(rows, 1)
	var changes struct {
		Before        taskSnapshot `json:"before"`
		After         taskSnapshot `json:"after"`
		UpdatedFields []string     `json:"updated_fields"`
	}
	s.Require().NoError(json.Unmarshal(rows[0].Changes, &changes))
	s.Equal(models.TaskStatusCompleted, changes.Before.Status)
	s.Equal(models.TaskStatusInProgress, changes.After.Status)
	s.ElementsMatch([]string{"status", "completed"}, changes.UpdatedFields)
}

func (s *TaskServiceTestSuite) TestUpdate_CompletingTwiceIsIdempotent() {
	task := s.create(s.owner, CreateTaskInput{Title: "t"})

	first, err := s.service.UpdateTask(s.ctx, callerFor(s.owner), task.ID, UpdateTaskInput{Completed: boolPtr(true)})
	s.Require().NoError(err)
	second, err := s.service.UpdateTask(s.ctx, callerFor(s.owner), task.ID, UpdateTaskInput{Completed: boolPtr(true)})
	s.Require().NoError(err)

	s.Equal(models.TaskStatusCompleted, second.Status)
	s.True(second.Completed)
	s.Equal(first.Status, second.Status)
	s.Len(s.auditRows(models.AuditActionComplete), 1, "a no-op update is not audited")
}

func (s *TaskServiceTestSuite) TestUpdate_StatusAloneKeepsCompletedInSync() {
	task := s.create(s.owner, CreateTaskInput{Title: "t"})
	done := models.TaskStatusCompleted

	updated, err := s.service.UpdateTask(s.ctx, callerFor(s.owner), task.ID, UpdateTaskInput{Status: &done})
	s.Require().NoError(err)
	s.True(updated.Completed)

	var stored models.Task
	s.Require().NoError(s.db.First(&stored, task.ID).Error)
	s.True(stored.Completed)
}

func (s *TaskServiceTestSuite) TestUpdate_Permissions() {
	task := s.create(s.owner, CreateTaskInput{Title: "t", AssignedTo: &s.viewer.ID})
	title := "x"

	// The viewer is the assignee and can see the task but not edit it.
	_, err := s.service.GetTask(s.ctx, callerFor(s.viewer), task.ID)
	s.Require().NoError(err)
	_, err = s.service.UpdateTask(s.ctx, callerFor(s.viewer), task.ID, UpdateTaskInput{Title: &title})
	s.ErrorIs(err, ErrPermissionDenied)

	// Another tenant's admin cannot even see it.
	_, err = s.service.UpdateTask(s.ctx, callerFor(s.stranger), task.ID, UpdateTaskInput{Title: &title})
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.service.UpdateTask(s.ctx, callerFor(s.owner), task.ID, UpdateTaskInput{})
	s.ErrorIs(err, ErrNoChanges)

	_, err = s.service.UpdateTask(s.ctx, callerFor(s.owner), 999, UpdateTaskInput{Title: &title})
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestAssigneeMayEditButNotDelete() {
	assignee := s.createUser("assignee@test.com", models.RoleMember, ptr(1))
	task := s.create(s.admin, CreateTaskInput{Title: "t", AssignedTo: &assignee.ID})
	title := "edited by assignee"

	_, err := s.service.UpdateTask(s.ctx, callerFor(assignee), task.ID, UpdateTaskInput{Title: &title})
	s.NoError(err)

	err = s.service.DeleteTask(s.ctx, callerFor(assignee), task.ID)
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = s.service.AssignTask(s.ctx, callerFor(assignee), task.ID, nil)
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = s.service.UpdateTask(s.ctx, callerFor(assignee), task.ID, UpdateTaskInput{ClearAssignee: true})
	s.ErrorIs(err, ErrPermissionDenied)
}

func (s *TaskServiceTestSuite) TestDelete() {
	task := s.create(s.member, CreateTaskInput{Title: "t"})

	s.Require().NoError(s.service.DeleteTask(s.ctx, callerFor(s.member), task.ID))
	_, err := s.service.GetTask(s.ctx, callerFor(s.member), task.ID)
	s.ErrorIs(err, ErrTaskNotFound)

	rows := s.auditRows(models.AuditActionDelete)
	s.Require().Len(rows, 1)
	s.Equal(uint64(1), rows[0].OrganizationID)
}

func (s *TaskServiceTestSuite) TestAssign() {
	task := s.create(s.owner, CreateTaskInput{Title: "t"})

	assigned, err := s.service.AssignTask(s.ctx, callerFor(s.owner), task.ID, &s.admin.ID)
	s.Require().NoError(err)
	s.Require().NotNil(assigned.Assignee)
	s.Equal(s.admin.Email, assigned.Assignee.Email)

	_, err = s.service.AssignTask(s.ctx, callerFor(s.owner), task.ID, &s.stranger.ID)
	s.ErrorIs(err, ErrInvalidAssignee)

	cleared, err := s.service.AssignTask(s.ctx, callerFor(s.owner), task.ID, nil)
	s.Require().NoError(err)
	s.Nil(cleared.AssignedTo)

	s.Len(s.auditRows(models.AuditActionAssign), 2)
}

func (s *TaskServiceTestSuite) TestListBoardAndStats() {
	s.create(s.owner, CreateTaskInput{Title: "a"})
	done := models.TaskStatusCompleted
	s.create(s.admin, CreateTaskInput{Title: "b", Status: &done})
	progress := models.TaskStatusInProgress
	s.create(s.member, CreateTaskInput{Title: "c", Status: &progress})
	s.create(s.stranger, CreateTaskInput{Title: "other tenant"})

	tasks, total, err := s.service.ListTasks(s.ctx, callerFor(s.owner), ListTasksInput{Page: 1, PageSize: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(tasks, 2)

	cols, err := s.service.Board(s.ctx, callerFor(s.owner))
	s.Require().NoError(err)
	s.Len(cols.New, 1)
	s.Len(cols.InProgress, 1)
	s.Len(cols.Completed, 1)

	mine, err := s.service.Board(s.ctx, callerFor(s.member))
	s.Require().NoError(err)
	s.Equal(1, mine.Len())

	stats, err := s.service.Stats(s.ctx, callerFor(s.owner))
	s.Require().NoError(err)
	s.Equal(3, stats.Total)
	s.InDelta(1.0/3.0, stats.CompletionRate, 1e-9)

	bad := models.TaskStatus("done")
	_, _, err = s.service.ListTasks(s.ctx, callerFor(s.owner), ListTasksInput{Status: &bad})
	s.ErrorIs(err, workflow.ErrInvalidStatus)
}

func (s *TaskServiceTestSuite) TestSuggestWithoutAI() {
	_, err := s.service.SuggestTasks(s.ctx, callerFor(s.owner), "plan the offsite")
	s.ErrorIs(err, ErrAIServiceNotConfigured)
}

func boolPtr(b bool) *bool { return &b }

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
