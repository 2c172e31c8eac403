package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusNew        TaskStatus = "new"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists the workflow states in board order.
var TaskStatuses = []TaskStatus{TaskStatusNew, TaskStatusInProgress, TaskStatusCompleted}

// Valid reports whether s is a known workflow state.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNew, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskCategory string

const (
	TaskCategoryWork     TaskCategory = "work"
	TaskCategoryPersonal TaskCategory = "personal"
	TaskCategoryOther    TaskCategory = "other"
)

// TaskCategories lists the known categories.
var TaskCategories = []TaskCategory{TaskCategoryWork, TaskCategoryPersonal, TaskCategoryOther}

// Valid reports whether c is a known category.
func (c TaskCategory) Valid() bool {
	switch c {
	case TaskCategoryWork, TaskCategoryPersonal, TaskCategoryOther:
		return true
	}
	return false
}

// Task is written through workflow.Apply for status and completion so the two never disagree.
type Task struct {
	ID             uint64       `gorm:"primarykey" json:"id"`
	Title          string       `gorm:"type:varchar(255);not null" json:"title"`
	Description    string       `gorm:"type:text" json:"description"`
	Status         TaskStatus   `gorm:"type:varchar(20);not null;default:'new'" json:"status"`
	Completed      bool         `gorm:"not null;default:false" json:"completed"`
	Category       TaskCategory `gorm:"type:varchar(20);not null;default:'work'" json:"category"`
	CreatedBy      *uint64      `gorm:"column:created_by" json:"created_by"`
	AssignedTo     *uint64      `gorm:"column:assigned_to" json:"assigned_to"`
	OrganizationID *uint64      `json:"organization_id"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	// Relations
	Creator      *User         `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Assignee     *User         `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}
