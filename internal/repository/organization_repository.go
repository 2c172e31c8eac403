package repository

import (
	"context"

	"github.com/taskflow/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// Create creates a new organization
func (r *GormOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uint64, withUsers bool) (*models.Organization, error) {
	var org models.Organization
	query := r.db.WithContext(ctx)
	if withUsers {
		query = query.Preload("Users", func(db *gorm.DB) *gorm.DB {
			return db.Order("users.id ASC")
		})
	}
	if err := query.First(&org, id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByName finds an organization by its unique name
func (r *GormOrganizationRepository) FindByName(ctx context.Context, name string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// List lists every organization ordered by id
func (r *GormOrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	orgs := []models.Organization{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}
