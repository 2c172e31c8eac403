package repository

import (
	"context"
	"strings"

	"github.com/taskflow/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email, ignoring case
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List lists users ordered by id
func (r *GormUserRepository) List(ctx context.Context, organizationID *uint64) ([]models.User, error) {
	query := r.db.WithContext(ctx).Order("id ASC")
	if organizationID != nil {
		query = query.Where("organization_id = ?", *organizationID)
	}

	users := []models.User{}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update saves every column of a user
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Organization").Save(user).Error
}
