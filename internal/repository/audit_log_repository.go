package repository

import (
	"context"
	"time"

	"github.com/taskflow/task-tracker-api/internal/database"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/utils"
	"gorm.io/gorm"
)

// GormAuditLogRepository is a GORM implementation of AuditLogRepository
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create appends one record
func (r *GormAuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Omit("User", "Organization").Create(entry).Error
}

// FindByOrganization pages through an organization's records, newest first
func (r *GormAuditLogRepository) FindByOrganization(ctx context.Context, organizationID uint64, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	return r.page(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("organization_id = ?", organizationID)
	}, params)
}

// FindByUser pages through one actor's records within an organization
func (r *GormAuditLogRepository) FindByUser(ctx context.Context, userID, organizationID uint64, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	return r.page(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND organization_id = ?", userID, organizationID)
	}, params)
}

// FindByResource returns the full history of one resource
func (r *GormAuditLogRepository) FindByResource(ctx context.Context, resource models.AuditResource, resourceID, organizationID uint64) ([]models.AuditLog, error) {
	entries := []models.AuditLog{}
	err := r.withRelations(ctx).
		Where("resource = ? AND resource_id = ? AND organization_id = ?", resource, resourceID, organizationID).
		Scopes(database.NewestFirst).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FindSince returns every record created at or after since
func (r *GormAuditLogRepository) FindSince(ctx context.Context, organizationID uint64, since time.Time) ([]models.AuditLog, error) {
	entries := []models.AuditLog{}
	err := r.withRelations(ctx).
		Where("organization_id = ? AND created_at >= ?", organizationID, since).
		Scopes(database.NewestFirst).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormAuditLogRepository) page(ctx context.Context, where func(*gorm.DB) *gorm.DB, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(where).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	entries := []models.AuditLog{}
	err := r.withRelations(ctx).
		Scopes(where, database.NewestFirst, database.Paginate(params)).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *GormAuditLogRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("User").Preload("Organization")
}
