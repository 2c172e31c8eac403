package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/taskflow/task-tracker-api/internal/auth"
	"github.com/taskflow/task-tracker-api/internal/cache"
	"github.com/taskflow/task-tracker-api/internal/database"
	"github.com/taskflow/task-tracker-api/internal/dto"
	apierrors "github.com/taskflow/task-tracker-api/internal/errors"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/repository"
	"github.com/taskflow/task-tracker-api/internal/services"
	"github.com/taskflow/task-tracker-api/internal/testutil"
	"gorm.io/gorm"
)

// APITestSuite drives the whole HTTP surface against an in-memory store
// seeded with the first-run accounts.
type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	users  map[string]models.User
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.db = testutil.NewDB(s.T())

	seeded, err := database.Seed(s.db, nil)
	s.Require().NoError(err)
	s.users = map[string]models.User{}
	for _, u := range seeded.Users {
		s.users[string(u.Role)] = u
	}

	userRepo := repository.NewUserRepository(s.db)
	orgRepo := repository.NewOrganizationRepository(s.db)
	audit := services.NewAuditService(repository.NewAuditLogRepository(s.db))

	s.router, err = New(Services{
		DB: s.db,
		Auth: services.NewAuthService(userRepo, orgRepo,
			auth.NewJWTService("router-test-secret", time.Hour),
			auth.NewTokenStore(cache.NewMemory()),
			audit, services.AuthServiceConfig{}),
		Tasks:         services.NewTaskService(repository.NewTaskRepository(s.db), userRepo, audit, services.TaskServiceConfig{}),
		Organizations: services.NewOrganizationService(orgRepo, audit, nil),
		Users:         services.NewUserService(userRepo, orgRepo, audit, nil),
		Audit:         audit,
	})
	s.Require().NoError(err)
}

func (s *APITestSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) decode(w *httptest.ResponseRecorder, out interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (s *APITestSuite) login(email string) string {
	w := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "123456"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.LoginResponse
	s.decode(w, &resp)
	return resp.AccessToken
}

func (s *APITestSuite) createTask(token string, body map[string]interface{}) dto.TaskDTO {
	w := s.do(http.MethodPost, "/tasks", token, body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var task dto.TaskDTO
	s.decode(w, &task)
	return task
}

func (s *APITestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestRegister() {
	w := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "new@test.com", "password": "abcdef", "first_name": "New",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.NotContains(w.Body.String(), "password")

	var user dto.UserDTO
	s.decode(w, &user)
	s.Equal(models.RoleViewer, user.Role)

	w = s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "NEW@test.com", "password": "abcdef"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "short@test.com", "password": "abc"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "not-an-email", "password": "abcdef", "role": "root"})
	s.Require().Equal(http.StatusBadRequest, w.Code)
	var apiErr struct {
		Code    string                 `json:"code"`
		Details []apierrors.FieldError `json:"details"`
	}
	s.decode(w, &apiErr)
	s.Equal(apierrors.ErrCodeValidationFailed, apiErr.Code)
	s.ElementsMatch([]apierrors.FieldError{
		{Field: "email", Rule: "email"},
		{Field: "role", Rule: "userrole"},
	}, apiErr.Details)
}

func (s *APITestSuite) TestLoginStatusLogout() {
	w := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "owner@test.com", "password": "wrong"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/auth/status", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	token := s.login("owner@test.com")
	w = s.do(http.MethodGet, "/auth/status", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var status dto.AuthStatusResponse
	s.decode(w, &status)
	s.Equal("owner@test.com", status.User.Email)
	s.Equal(models.RoleOwner, status.User.Role)

	w = s.do(http.MethodPost, "/auth/logout", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/auth/status", token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestTaskLifecycle() {
	token := s.login("owner@test.com")

	task := s.createTask(token, map[string]interface{}{"title": "Write proposal", "category": "work"})
	s.Equal(models.TaskStatusNew, task.Status)
	s.False(task.Completed)
	s.Require().NotNil(task.OrganizationID)
	s.Equal(uint64(1), *task.OrganizationID)

	path := fmt.Sprintf("/tasks/%d", task.ID)
	w := s.do(http.MethodGet, path, token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPatch, path, token, map[string]interface{}{"completed": true})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &task)
	s.Equal(models.TaskStatusCompleted, task.Status)

	w = s.do(http.MethodPut, path, token, map[string]interface{}{"completed": false})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &task)
	s.Equal(models.TaskStatusInProgress, task.Status)
	s.False(task.Completed)

	w = s.do(http.MethodPatch, path, token, map[string]interface{}{"status": "completed", "completed": false})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, path, token, map[string]interface{}{"status": "done"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "taskstatus")

	w = s.do(http.MethodPatch, path, token, map[string]interface{}{})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/tasks?status=in-progress", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list dto.TaskListResponse
	s.decode(w, &list)
	s.Equal(int64(1), list.Pagination.Total)

	w = s.do(http.MethodDelete, path, token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, path, token, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/tasks/abc", token, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestTaskPermissions() {
	owner := s.login("owner@test.com")
	viewer := s.login("viewer@test.com")

	w := s.do(http.MethodPost, "/tasks", viewer, map[string]interface{}{"title": "nope"})
	s.Equal(http.StatusForbidden, w.Code)

	task := s.createTask(owner, map[string]interface{}{"title": "owned"})
	path := fmt.Sprintf("/tasks/%d", task.ID)

	w = s.do(http.MethodGet, path, viewer, nil)
	s.Equal(http.StatusNotFound, w.Code, "viewer is neither creator nor assignee")

	w = s.do(http.MethodPost, path+"/assign", owner, map[string]interface{}{"assigned_to": s.users["viewer"].ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, path, viewer, nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodPatch, path, viewer, map[string]interface{}{"title": "edited"})
	s.Equal(http.StatusForbidden, w.Code)
	w = s.do(http.MethodDelete, path, viewer, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPatch, path, owner, map[string]interface{}{"assigned_to": nil})
	s.Require().Equal(http.StatusOK, w.Code)
	var updated dto.TaskDTO
	s.decode(w, &updated)
	s.Nil(updated.AssignedTo)

	w = s.do(http.MethodPost, path+"/assign", owner, map[string]interface{}{})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/tasks", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestBoardStatsAndSuggest() {
	token := s.login("admin@test.com")
	s.createTask(token, map[string]interface{}{"title": "a"})
	s.createTask(token, map[string]interface{}{"title": "b", "completed": true})

	w := s.do(http.MethodGet, "/tasks/board", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var board dto.BoardDTO
	s.decode(w, &board)
	s.Len(board.New, 1)
	s.Len(board.InProgress, 0)
	s.Len(board.Completed, 1)
	s.Contains(w.Body.String(), `"in_progress":[]`)

	w = s.do(http.MethodGet, "/tasks/stats", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var stats struct {
		Total          int     `json:"total"`
		CompletionRate float64 `json:"completion_rate"`
	}
	s.decode(w, &stats)
	s.Equal(2, stats.Total)
	s.InDelta(0.5, stats.CompletionRate, 1e-9)

	w = s.do(http.MethodPost, "/tasks/suggest", token, map[string]string{"text": "plan the offsite"})
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *APITestSuite) TestAuditEndpoints() {
	owner := s.login("owner@test.com")
	viewer := s.login("viewer@test.com")
	s.createTask(owner, map[string]interface{}{"title": "audited"})

	w := s.do(http.MethodGet, "/audit-logs/organization", viewer, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/audit-logs/organization?page=1&limit=2", owner, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var page dto.AuditLogListResponse
	s.decode(w, &page)
	s.Equal(int64(4), page.Total, "three seeded users and one task")
	s.Len(page.Logs, 2)
	s.Equal(models.AuditResourceTask, page.Logs[0].Resource)

	w = s.do(http.MethodGet, fmt.Sprintf("/audit-logs/resource/task/%d", page.Logs[0].ResourceID), owner, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &page)
	s.Equal(int64(1), page.Total)

	w = s.do(http.MethodGet, "/audit-logs/resource/comment/1", owner, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/audit-logs/recent?days=abc", owner, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/audit-logs/user/%d", s.users["owner"].ID), owner, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/audit-logs/my-activity", viewer, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &page)
	s.Equal(int64(1), page.Total, "the viewer's own seeding row")
}

func (s *APITestSuite) TestUsersAndOrganizations() {
	owner := s.login("owner@test.com")
	admin := s.login("admin@test.com")

	w := s.do(http.MethodGet, "/users", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/users", admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "password")
	var users dto.UserListResponse
	s.decode(w, &users)
	s.Equal(3, users.Total)

	w = s.do(http.MethodGet, "/users/organization/1", admin, nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/users/999", admin, nil)
	s.Equal(http.StatusNotFound, w.Code)

	viewerPath := fmt.Sprintf("/users/%d", s.users["viewer"].ID)
	w = s.do(http.MethodPatch, viewerPath, admin, map[string]string{"role": "owner"})
	s.Equal(http.StatusForbidden, w.Code)
	w = s.do(http.MethodPatch, viewerPath, admin, map[string]string{"role": "member"})
	s.Require().Equal(http.StatusOK, w.Code)

	viewer := s.login("viewer@test.com")
	w = s.do(http.MethodPatch, fmt.Sprintf("/users/%d", s.users["admin"].ID), viewer, map[string]string{"role": "viewer"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/organizations", admin, map[string]string{"name": "Acme"})
	s.Equal(http.StatusForbidden, w.Code)
	w = s.do(http.MethodPost, "/organizations", owner, map[string]string{"name": "Acme"})
	s.Require().Equal(http.StatusCreated, w.Code)
	w = s.do(http.MethodPost, "/organizations", owner, map[string]string{"name": "Acme"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/organizations/1", owner, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var org dto.OrganizationDetailDTO
	s.decode(w, &org)
	s.Len(org.Users, 3)

	w = s.do(http.MethodGet, "/organizations", owner, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var orgs dto.OrganizationListResponse
	s.decode(w, &orgs)
	s.Equal(2, orgs.Total)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
