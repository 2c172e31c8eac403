package repository

import (
	"context"
	"time"

	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/policy"
	"github.com/taskflow/task-tracker-api/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with creator and assignee preloaded
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update saves every column of a task
	Update(ctx context.Context, task *models.Task) error

	// Delete removes a task; deleting a missing task is not an error
	Delete(ctx context.Context, id uint64) error
}

// TaskFilter holds filtering options for listing tasks. A nil Visibility
// matches nothing; a zero Page returns every matching row.
type TaskFilter struct {
	Visibility *policy.Visibility
	Status     *models.TaskStatus
	Category   *models.TaskCategory
	Page       int
	PageSize   int
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(ctx context.Context, org *models.Organization) error

	// FindByID finds an organization by ID, optionally with its users
	FindByID(ctx context.Context, id uint64, withUsers bool) (*models.Organization, error)

	// FindByName finds an organization by its unique name
	FindByName(ctx context.Context, name string) (*models.Organization, error)

	// List lists every organization ordered by id
	List(ctx context.Context) ([]models.Organization, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List lists users, restricted to one organization when organizationID is set
	List(ctx context.Context, organizationID *uint64) ([]models.User, error)

	// Update saves every column of a user
	Update(ctx context.Context, user *models.User) error
}

// AuditLogRepository is append-only: there is no update or delete.
type AuditLogRepository interface {
	// Create appends one record
	Create(ctx context.Context, entry *models.AuditLog) error

	// FindByOrganization pages through an organization's records, newest first
	FindByOrganization(ctx context.Context, organizationID uint64, params utils.PaginationParams) ([]models.AuditLog, int64, error)

	// FindByUser pages through one actor's records within an organization
	FindByUser(ctx context.Context, userID, organizationID uint64, params utils.PaginationParams) ([]models.AuditLog, int64, error)

	// FindByResource returns the full history of one resource
	FindByResource(ctx context.Context, resource models.AuditResource, resourceID, organizationID uint64) ([]models.AuditLog, error)

	// FindSince returns every record created at or after since
	FindSince(ctx context.Context, organizationID uint64, since time.Time) ([]models.AuditLog, error)
}
