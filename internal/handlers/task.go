package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/task-tracker-api/internal/dto"
	apierrors "github.com/taskflow/task-tracker-api/internal/errors"
	"github.com/taskflow/task-tracker-api/internal/middleware"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/services"
	"github.com/taskflow/task-tracker-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns a page of the tasks visible to the current user.
// Can filter by status and category.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{Page: params.Page, PageSize: params.Limit}
	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		input.Status = &s
	}
	if category := c.Query("category"); category != "" {
		cat := models.TaskCategory(category)
		input.Category = &cat
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), caller, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// taskIDParam returns the id parsed by RequireTaskID, or writes a 400 when
// the route was mounted without it.
func taskIDParam(c *gin.Context) (uint64, bool) {
	id, ok := middleware.GetTaskID(c)
	if !ok || id == 0 {
		apierrors.BadRequest(c, "Invalid task ID")
		return 0, false
	}
	return id, true
}

// GetTask returns a specific task
func (h *TaskHandler) GetTask(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), caller, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title          string               `json:"title" binding:"required,max=255"`
		Description    string               `json:"description"`
		Status         *models.TaskStatus   `json:"status" binding:"omitempty,taskstatus"`
		Completed      *bool                `json:"completed"`
		Category       *models.TaskCategory `json:"category" binding:"omitempty,taskcategory"`
		AssignedTo     *uint64              `json:"assigned_to"`
		OrganizationID *uint64              `json:"organization_id"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), caller, services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Completed:      req.Completed,
		Category:       req.Category,
		AssignedTo:     req.AssignedTo,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. PUT and PATCH behave the same.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string              `json:"title" binding:"omitempty,max=255"`
		Description *string              `json:"description"`
		Status      *models.TaskStatus   `json:"status" binding:"omitempty,taskstatus"`
		Completed   *bool                `json:"completed"`
		Category    *models.TaskCategory `json:"category" binding:"omitempty,taskcategory"`
		AssignedTo  NullableID           `json:"assigned_to"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Completed:   req.Completed,
		Category:    req.Category,
	}
	if req.AssignedTo.Set {
		input.AssignedTo = req.AssignedTo.Value
		input.ClearAssignee = req.AssignedTo.Value == nil
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), caller, taskID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), caller, taskID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Task deleted successfully"})
}

// AssignTask sets or clears the assignee of a task
func (h *TaskHandler) AssignTask(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	type AssignTaskRequest struct {
		AssignedTo NullableID `json:"assigned_to"`
	}

	var req AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}
	if !req.AssignedTo.Set {
		apierrors.BadRequestWithDetails(c, "assigned_to is required",
			[]apierrors.FieldError{{Field: "assigned_to", Rule: "required"}})
		return
	}

	task, err := h.taskService.AssignTask(c.Request.Context(), caller, taskID, req.AssignedTo.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// GetBoard groups the visible tasks into workflow columns
func (h *TaskHandler) GetBoard(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	cols, err := h.taskService.Board(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTO(cols))
}

// GetStats summarises the visible tasks
func (h *TaskHandler) GetStats(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	stats, err := h.taskService.Stats(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// SuggestTasks drafts tasks from free text using AI. Nothing is stored.
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	type SuggestTasksRequest struct {
		Text string `json:"text" binding:"required,max=10000"`
	}

	var req SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	suggestions, err := h.taskService.SuggestTasks(c.Request.Context(), caller, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]dto.TaskSuggestionDTO, len(suggestions))
	for i, s := range suggestions {
		items[i] = dto.TaskSuggestionDTO{Title: s.Title, Description: s.Description, Category: s.Category}
	}
	c.JSON(http.StatusOK, dto.SuggestionsResponse{Suggestions: items})
}
