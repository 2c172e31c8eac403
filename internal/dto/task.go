package dto

import (
	"time"

	"github.com/taskflow/task-tracker-api/internal/board"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/utils"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Completed      bool                `json:"completed"`
	Category       models.TaskCategory `json:"category"`
	CreatedBy      *uint64             `json:"created_by"`
	AssignedTo     *uint64             `json:"assigned_to"`
	OrganizationID *uint64             `json:"organization_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Creator        *UserSummaryDTO     `json:"creator,omitempty"`
	Assignee       *UserSummaryDTO     `json:"assignee,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// BoardDTO is the three-column board view
type BoardDTO struct {
	New        []TaskDTO `json:"new"`
	InProgress []TaskDTO `json:"in_progress"`
	Completed  []TaskDTO `json:"completed"`
}

// SuggestionsResponse wraps AI generated task drafts
type SuggestionsResponse struct {
	Suggestions []TaskSuggestionDTO `json:"suggestions"`
}

// TaskSuggestionDTO is a task draft that has not been persisted
type TaskSuggestionDTO struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    models.TaskCategory `json:"category"`
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Completed:      task.Completed,
		Category:       task.Category,
		CreatedBy:      task.CreatedBy,
		AssignedTo:     task.AssignedTo,
		OrganizationID: task.OrganizationID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		Creator:        ToUserSummaryDTO(task.Creator),
		Assignee:       ToUserSummaryDTO(task.Assignee),
	}
}

// ToTaskDTOs converts a slice of tasks, never returning nil
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskDTOs(tasks),
		Pagination: params.Response(total),
	}
}

// ToBoardDTO converts board columns
func ToBoardDTO(cols board.Columns) BoardDTO {
	return BoardDTO{
		New:        ToTaskDTOs(cols.New),
		InProgress: ToTaskDTOs(cols.InProgress),
		Completed:  ToTaskDTOs(cols.Completed),
	}
}
