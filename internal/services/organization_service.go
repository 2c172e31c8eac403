package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidOrganizationName = errors.New("organization name cannot be empty")
	ErrOrganizationNameTaken   = errors.New("organization name already exists")
)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	orgRepo repository.OrganizationRepository
	audit   auditTrail
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository, recorder Recorder, logger *slog.Logger) *OrganizationService {
	return &OrganizationService{
		orgRepo: orgRepo,
		audit:   newAuditTrail(recorder, logger),
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name        string
	Description string
}

// CreateOrganization creates a new tenant. Only owners may do this.
func (s *OrganizationService) CreateOrganization(ctx context.Context, caller *Caller, input CreateOrganizationInput) (*models.Organization, error) {
	actor := caller.actor()
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if actor.Role != models.RoleOwner {
		return nil, ErrPermissionDenied
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	if _, err := s.orgRepo.FindByName(ctx, name); err == nil {
		return nil, ErrOrganizationNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check organization name: %w", err)
	}

	org := &models.Organization{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.audit.record(ctx, caller, AuditEntry{
		Action:         models.AuditActionCreate,
		Resource:       models.AuditResourceOrganization,
		ResourceID:     org.ID,
		UserID:         actor.ID,
		OrganizationID: org.ID,
		Description:    fmt.Sprintf("Organization %q created", org.Name),
		Changes:        map[string]interface{}{"name": org.Name, "description": org.Description},
	})

	return org, nil
}

// ListOrganizations returns every organization.
func (s *OrganizationService) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// GetOrganization returns an organization with its users.
func (s *OrganizationService) GetOrganization(ctx context.Context, id uint64) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}
