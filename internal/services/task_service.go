package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskflow/task-tracker-api/internal/board"
	"github.com/taskflow/task-tracker-api/internal/constants"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/policy"
	"github.com/taskflow/task-tracker-api/internal/repository"
	"github.com/taskflow/task-tracker-api/internal/workflow"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrInvalidCategory        = errors.New("category must be one of work, personal, other")
	ErrInvalidAssignee        = errors.New("assignee does not exist or belongs to another organization")
	ErrNoChanges              = errors.New("update data is required")
	ErrOrganizationRequired   = errors.New("organization is required")
	ErrOrganizationMismatch   = errors.New("tasks can only be created in your own organization")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic. Every read and write goes through
// the authorization policy; status and completion go through the workflow.
type TaskService struct {
	taskRepo      repository.TaskRepository
	userRepo      repository.UserRepository
	audit         auditTrail
	aiService     *AIService
	strictTenancy bool
	now           func() time.Time
}

// TaskServiceConfig holds the optional collaborators of TaskService.
type TaskServiceConfig struct {
	AIService *AIService
	Logger    *slog.Logger
	// StrictTenancy rejects task creation by callers without an organization
	// instead of falling back to the default one.
	StrictTenancy bool
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, recorder Recorder, cfg TaskServiceConfig) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		userRepo:      userRepo,
		audit:         newAuditTrail(recorder, cfg.Logger),
		aiService:     cfg.AIService,
		strictTenancy: cfg.StrictTenancy,
		now:           time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status   *models.TaskStatus
	Category *models.TaskCategory
	Page     int
	PageSize int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         *models.TaskStatus
	Completed      *bool
	Category       *models.TaskCategory
	AssignedTo     *uint64
	OrganizationID *uint64
}

// UpdateTaskInput represents input for updating a task. Nil fields are left alone.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Completed     *bool
	Category      *models.TaskCategory
	AssignedTo    *uint64
	ClearAssignee bool
}

func (in UpdateTaskInput) isEmpty() bool {
	return in.Title == nil && in.Description == nil && in.Status == nil && in.Completed == nil &&
		in.Category == nil && in.AssignedTo == nil && !in.ClearAssignee
}

// ListTasks returns a page of the tasks the caller can view, newest first
func (s *TaskService) ListTasks(ctx context.Context, caller *Caller, input ListTasksInput) ([]models.Task, int64, error) {
	actor := caller.actor()
	if actor == nil {
		return nil, 0, ErrUnauthenticated
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, workflow.ErrInvalidStatus
	}
	if input.Category != nil && !input.Category.Valid() {
		return nil, 0, ErrInvalidCategory
	}

	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		Visibility: policy.VisibilityFor(actor),
		Status:     input.Status,
		Category:   input.Category,
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// GetTask returns a task the caller can view. Tasks outside the caller's view
// are reported as not found.
func (s *TaskService) GetTask(ctx context.Context, caller *Caller, id uint64) (*models.Task, error) {
	return s.loadFor(ctx, caller, id, policy.ActionView)
}

// CreateTask creates a task owned by the caller
func (s *TaskService) CreateTask(ctx context.Context, caller *Caller, input CreateTaskInput) (*models.Task, error) {
	actor := caller.actor()
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !policy.CanCreate(actor) {
		return nil, ErrPermissionDenied
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	category := models.TaskCategoryWork
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, ErrInvalidCategory
		}
		category = *input.Category
	}

	orgID, err := s.resolveOrganization(actor, input.OrganizationID)
	if err != nil {
		return nil, err
	}

	createdBy := actor.ID
	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		Category:       category,
		CreatedBy:      &createdBy,
		OrganizationID: &orgID,
	}
	if err := workflow.Initialize(task, workflow.Change{Status: input.Status, Completed: input.Completed}); err != nil {
		return nil, err
	}
	if input.AssignedTo != nil {
		if err := s.ensureAssignable(ctx, *input.AssignedTo, orgID); err != nil {
			return nil, err
		}
		task.AssignedTo = input.AssignedTo
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.audit.record(ctx, caller, AuditEntry{
		Action:         models.AuditActionCreate,
		Resource:       models.AuditResourceTask,
		ResourceID:     task.ID,
		UserID:         actor.ID,
		OrganizationID: orgID,
		Description:    fmt.Sprintf("Task %q created", task.Title),
		Changes:        map[string]interface{}{"task": snapshotOf(task)},
	})

	return s.reload(ctx, task)
}

// UpdateTask applies a partial update. Status and completion are resolved
// together; a change to the assignee additionally needs the assign permission.
func (s *TaskService) UpdateTask(ctx context.Context, caller *Caller, id uint64, input UpdateTaskInput) (*models.Task, error) {
	if input.isEmpty() {
		return nil, ErrNoChanges
	}

	task, err := s.loadFor(ctx, caller, id, policy.ActionEdit)
	if err != nil {
		return nil, err
	}
	actor := caller.actor()
	before := snapshotOf(task)

	var changed []string
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if title != task.Title {
			task.Title = title
			changed = append(changed, "title")
		}
	}
	if input.Description != nil && *input.Description != task.Description {
		task.Description = *input.Description
		changed = append(changed, "description")
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, ErrInvalidCategory
		}
		if *input.Category != task.Category {
			task.Category = *input.Category
			changed = append(changed, "category")
		}
	}
	if input.AssignedTo != nil || input.ClearAssignee {
		if !policy.CanAssign(actor, policy.RefOf(task)) {
			return nil, ErrPermissionDenied
		}
		assigneeChanged, err := s.setAssignee(ctx, task, input.AssignedTo)
		if err != nil {
			return nil, err
		}
		if assigneeChanged {
			changed = append(changed, "assigned_to")
		}
	}

	stateChanged, err := workflow.Apply(task, workflow.Change{Status: input.Status, Completed: input.Completed})
	if err != nil {
		return nil, err
	}
	changed = append(changed, stateChanged...)

	if len(changed) == 0 {
		return task, nil
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	updated, err := s.reload(ctx, task)
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, caller, AuditEntry{
		Action:         workflow.ActionFor(updated, changed),
		Resource:       models.AuditResourceTask,
		ResourceID:     updated.ID,
		UserID:         actor.ID,
		OrganizationID: policy.OrgOrDefault(updated.OrganizationID),
		Description:    fmt.Sprintf("Task %q updated", updated.Title),
		Changes: map[string]interface{}{
			"before":         before,
			"after":          snapshotOf(updated),
			"updated_fields": changed,
		},
	})

	return updated, nil
}

// DeleteTask removes a task
func (s *TaskService) DeleteTask(ctx context.Context, caller *Caller, id uint64) error {
	task, err := s.loadFor(ctx, caller, id, policy.ActionDelete)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.audit.record(ctx, caller, AuditEntry{
		Action:         models.AuditActionDelete,
		Resource:       models.AuditResourceTask,
		ResourceID:     task.ID,
		UserID:         caller.ID,
		OrganizationID: policy.OrgOrDefault(task.OrganizationID),
		Description:    fmt.Sprintf("Task %q deleted", task.Title),
		Changes:        map[string]interface{}{"deleted_task": snapshotOf(task)},
	})
	return nil
}

// AssignTask sets or, with a nil assignee, clears the task's assignee
func (s *TaskService) AssignTask(ctx context.Context, caller *Caller, id uint64, assigneeID *uint64) (*models.Task, error) {
	task, err := s.loadFor(ctx, caller, id, policy.ActionAssign)
	if err != nil {
		return nil, err
	}
	previous := task.AssignedTo

	changed, err := s.setAssignee(ctx, task, assigneeID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return task, nil
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}

	updated, err := s.reload(ctx, task)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Task %q unassigned", updated.Title)
	if updated.AssignedTo != nil {
		description = fmt.Sprintf("Task %q assigned to user %d", updated.Title, *updated.AssignedTo)
	}
	s.audit.record(ctx, caller, AuditEntry{
		Action:         models.AuditActionAssign,
		Resource:       models.AuditResourceTask,
		ResourceID:     updated.ID,
		UserID:         caller.ID,
		OrganizationID: policy.OrgOrDefault(updated.OrganizationID),
		Description:    description,
		Changes: map[string]interface{}{
			"before": map[string]interface{}{"assigned_to": previous},
			"after":  map[string]interface{}{"assigned_to": updated.AssignedTo},
		},
	})

	return updated, nil
}

// Board groups every visible task into the three workflow columns
func (s *TaskService) Board(ctx context.Context, caller *Caller) (board.Columns, error) {
	tasks, _, err := s.ListTasks(ctx, caller, ListTasksInput{})
	if err != nil {
		return board.Columns{}, err
	}
	return board.Group(board.Sorted(tasks)), nil
}

// Stats summarises every visible task
func (s *TaskService) Stats(ctx context.Context, caller *Caller) (board.Stats, error) {
	tasks, _, err := s.ListTasks(ctx, caller, ListTasksInput{})
	if err != nil {
		return board.Stats{}, err
	}
	return board.Summarize(tasks, s.now()), nil
}

// SuggestTasks drafts tasks from free text without storing them
func (s *TaskService) SuggestTasks(ctx context.Context, caller *Caller, text string) ([]TaskSuggestion, error) {
	actor := caller.actor()
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !policy.CanCreate(actor) {
		return nil, ErrPermissionDenied
	}
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	suggestions, err := s.aiService.SuggestTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(suggestions) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(suggestions) > constants.MaxSuggestedTasks {
		suggestions = suggestions[:constants.MaxSuggestedTasks]
	}

	valid := make([]TaskSuggestion, 0, len(suggestions))
	for _, suggestion := range suggestions {
		suggestion.Title = strings.TrimSpace(suggestion.Title)
		if suggestion.Title == "" {
			continue
		}
		if !suggestion.Category.Valid() {
			suggestion.Category = models.TaskCategoryOther
		}
		valid = append(valid, suggestion)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}
	return valid, nil
}

// loadFor fetches a task and checks action against it. A task the caller
// cannot view is reported as missing; a visible one that the action is not
// allowed on yields ErrPermissionDenied.
func (s *TaskService) loadFor(ctx context.Context, caller *Caller, id uint64, action policy.Action) (*models.Task, error) {
	actor := caller.actor()
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	ref := policy.RefOf(task)
	if !policy.CanView(actor, ref) {
		return nil, ErrTaskNotFound
	}
	if !policy.Can(actor, ref, action) {
		return nil, ErrPermissionDenied
	}
	return task, nil
}

func (s *TaskService) reload(ctx context.Context, task *models.Task) (*models.Task, error) {
	loaded, err := s.taskRepo.FindByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return loaded, nil
}

// resolveOrganization picks the organization of a new task. It must match the
// caller's own, with both sides defaulted unless strict tenancy is on.
func (s *TaskService) resolveOrganization(actor *policy.Actor, requested *uint64) (uint64, error) {
	if s.strictTenancy {
		if actor.OrganizationID == nil || *actor.OrganizationID == 0 {
			return 0, ErrOrganizationRequired
		}
		if requested != nil && *requested != *actor.OrganizationID {
			return 0, ErrOrganizationMismatch
		}
		return *actor.OrganizationID, nil
	}

	own := actor.Organization()
	if requested != nil && policy.OrgOrDefault(requested) != own {
		return 0, ErrOrganizationMismatch
	}
	return own, nil
}

// setAssignee reports whether the assignee actually changed
func (s *TaskService) setAssignee(ctx context.Context, task *models.Task, assigneeID *uint64) (bool, error) {
	if assigneeID == nil || *assigneeID == 0 {
		if task.AssignedTo == nil {
			return false, nil
		}
		task.AssignedTo = nil
		task.Assignee = nil
		return true, nil
	}

	if task.AssignedTo != nil && *task.AssignedTo == *assigneeID {
		return false, nil
	}
	if err := s.ensureAssignable(ctx, *assigneeID, policy.OrgOrDefault(task.OrganizationID)); err != nil {
		return false, err
	}
	id := *assigneeID
	task.AssignedTo = &id
	task.Assignee = nil
	return true, nil
}

func (s *TaskService) ensureAssignable(ctx context.Context, userID, organizationID uint64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidAssignee
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	if policy.OrgOrDefault(user.OrganizationID) != organizationID {
		return ErrInvalidAssignee
	}
	return nil
}

// taskSnapshot is the audit payload form of a task, without relations
type taskSnapshot struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Completed      bool                `json:"completed"`
	Category       models.TaskCategory `json:"category"`
	CreatedBy      *uint64             `json:"created_by"`
	AssignedTo     *uint64             `json:"assigned_to"`
	OrganizationID *uint64             `json:"organization_id"`
}

func snapshotOf(task *models.Task) taskSnapshot {
	return taskSnapshot{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Completed:      task.Completed,
		Category:       task.Category,
		CreatedBy:      copyID(task.CreatedBy),
		AssignedTo:     copyID(task.AssignedTo),
		OrganizationID: copyID(task.OrganizationID),
	}
}

func copyID(id *uint64) *uint64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
