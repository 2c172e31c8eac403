package repository

import (
	"context"

	"github.com/taskflow/task-tracker-api/internal/constants"
	"github.com/taskflow/task-tracker-api/internal/database"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/policy"
	"github.com/taskflow/task-tracker-api/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID with creator and assignee preloaded
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Assignee").
		First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(visibleTo(filter.Visibility))

	// Apply filters
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Category != nil {
		query = query.Where("tasks.category = ?", *filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Scopes(database.NewestFirst)
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	tasks := []models.Task{}
	if err := listQuery.Preload("Creator").Preload("Assignee").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// visibleTo narrows a task query to what a Visibility allows. Rows without an
// organization belong to the default one.
func visibleTo(v *policy.Visibility) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case v == nil:
			return db.Where("1 = 0")
		case v.OrganizationID != nil:
			if *v.OrganizationID == constants.DefaultOrganizationID {
				return db.Where("(tasks.organization_id IN ? OR tasks.organization_id IS NULL)", []uint64{0, constants.DefaultOrganizationID})
			}
			return db.Where("tasks.organization_id = ?", *v.OrganizationID)
		case v.ParticipantID != nil && *v.ParticipantID != 0:
			return db.Where("(tasks.created_by = ? OR tasks.assigned_to = ?)", *v.ParticipantID, *v.ParticipantID)
		default:
			return db.Where("1 = 0")
		}
	}
}

// Update saves every column of a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	// Omit relations so a stale preloaded creator is never written back.
	return r.db.WithContext(ctx).Omit("Creator", "Assignee", "Organization").Save(task).Error
}

// Delete removes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Task{}, id).Error
}
