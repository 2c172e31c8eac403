// Package workflow moves tasks between the new, in-progress and completed
// states. Apply is the only code that writes Task.Status or Task.Completed.
package workflow

import (
	"errors"
	"fmt"

	"github.com/taskflow/task-tracker-api/internal/models"
)

var (
	ErrInvalidStatus  = errors.New("status must be one of new, in-progress, completed")
	ErrStatusConflict = errors.New("completed conflicts with status")
)

// Change is a requested transition. Nil fields are left alone.
type Change struct {
	Status    *models.TaskStatus
	Completed *bool
}

// IsEmpty reports whether the change requests nothing.
func (c Change) IsEmpty() bool {
	return c.Status == nil && c.Completed == nil
}

// Resolve computes the status the task ends in without touching it.
func Resolve(current models.TaskStatus, change Change) (models.TaskStatus, error) {
	if change.Status != nil && !change.Status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, *change.Status)
	}

	switch {
	case change.Status != nil && change.Completed != nil:
		if (*change.Status == models.TaskStatusCompleted) != *change.Completed {
			return "", ErrStatusConflict
		}
		return *change.Status, nil
	case change.Status != nil:
		return *change.Status, nil
	case change.Completed != nil:
		if *change.Completed {
			return models.TaskStatusCompleted, nil
		}
		if current == models.TaskStatusCompleted {
			// Un-completing re-opens the task; it never falls back to new.
			return models.TaskStatusInProgress, nil
		}
		if !current.Valid() {
			return models.TaskStatusNew, nil
		}
		return current, nil
	default:
		if !current.Valid() {
			return models.TaskStatusNew, nil
		}
		return current, nil
	}
}

// Apply performs the change on task and returns the names of the fields it modified.
// On error the task is untouched.
func Apply(task *models.Task, change Change) ([]string, error) {
	next, err := Resolve(task.Status, change)
	if err != nil {
		return nil, err
	}

	var changed []string
	if task.Status != next {
		task.Status = next
		changed = append(changed, "status")
	}
	completed := next == models.TaskStatusCompleted
	if task.Completed != completed {
		task.Completed = completed
		changed = append(changed, "completed")
	}
	return changed, nil
}

// Initialize sets the starting state of a new task from the creation request.
// Without a status or completion flag the task starts as new.
func Initialize(task *models.Task, change Change) error {
	task.Status = models.TaskStatusNew
	task.Completed = false
	_, err := Apply(task, change)
	return err
}

// ActionFor classifies a set of changed fields for the audit trail.
func ActionFor(task *models.Task, changed []string) models.AuditAction {
	statusOnly := len(changed) > 0
	for _, field := range changed {
		if field != "status" && field != "completed" {
			statusOnly = false
			break
		}
	}
	if !statusOnly {
		return models.AuditActionUpdate
	}
	if task.Status == models.TaskStatusCompleted {
		return models.AuditActionComplete
	}
	return models.AuditActionStatusChange
}
