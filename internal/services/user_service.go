package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/policy"
	"github.com/taskflow/task-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// UserService serves the user directory and administrative user changes.
type UserService struct {
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
	audit    auditTrail
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository, recorder Recorder, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		orgRepo:  orgRepo,
		audit:    newAuditTrail(recorder, logger),
	}
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListOrganizationUsers returns the users of one organization.
func (s *UserService) ListOrganizationUsers(ctx context.Context, organizationID uint64) ([]models.User, error) {
	users, err := s.userRepo.List(ctx, &organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser returns one user.
func (s *UserService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateUserInput holds the administrable user fields. Nil fields are left alone.
type UpdateUserInput struct {
	FirstName      *string
	LastName       *string
	Role           *models.UserRole
	OrganizationID *uint64
}

// UpdateUser changes a user in the caller's organization. Owners and admins
// may do this; only owners may grant or take away the owner role or move
// another user to a different organization.
func (s *UserService) UpdateUser(ctx context.Context, caller *Caller, id uint64, input UpdateUserInput) (*models.User, error) {
	actor := caller.actor()
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if input.FirstName == nil && input.LastName == nil && input.Role == nil && input.OrganizationID == nil {
		return nil, ErrNoChanges
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() || policy.OrgOrDefault(user.OrganizationID) != actor.Organization() {
		return nil, ErrPermissionDenied
	}

	before := map[string]interface{}{
		"first_name": user.FirstName, "last_name": user.LastName,
		"role": user.Role, "organization_id": user.OrganizationID,
	}
	var changed []string

	if input.Role != nil && *input.Role != user.Role {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		if (*input.Role == models.RoleOwner || user.Role == models.RoleOwner) && actor.Role != models.RoleOwner {
			return nil, ErrPermissionDenied
		}
		user.Role = *input.Role
		changed = append(changed, "role")
	}
	if input.OrganizationID != nil && policy.OrgOrDefault(input.OrganizationID) != policy.OrgOrDefault(user.OrganizationID) {
		// Moving accounts between tenants is owner-only, and nobody moves themselves.
		if actor.Role != models.RoleOwner || user.ID == actor.ID {
			return nil, ErrPermissionDenied
		}
		if _, err := s.orgRepo.FindByID(ctx, *input.OrganizationID, false); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrOrganizationNotFound
			}
			return nil, fmt.Errorf("failed to check organization: %w", err)
		}
		orgID := *input.OrganizationID
		user.OrganizationID = &orgID
		changed = append(changed, "organization_id")
	}
	if input.FirstName != nil && strings.TrimSpace(*input.FirstName) != user.FirstName {
		user.FirstName = strings.TrimSpace(*input.FirstName)
		changed = append(changed, "first_name")
	}
	if input.LastName != nil && strings.TrimSpace(*input.LastName) != user.LastName {
		user.LastName = strings.TrimSpace(*input.LastName)
		changed = append(changed, "last_name")
	}

	if len(changed) == 0 {
		return user, nil
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.audit.record(ctx, caller, AuditEntry{
		Action:         models.AuditActionUpdate,
		Resource:       models.AuditResourceUser,
		ResourceID:     user.ID,
		UserID:         actor.ID,
		OrganizationID: actor.Organization(),
		Description:    fmt.Sprintf("User %s updated", user.Email),
		Changes: map[string]interface{}{
			"before": before,
			"after": map[string]interface{}{
				"first_name": user.FirstName, "last_name": user.LastName,
				"role": user.Role, "organization_id": user.OrganizationID,
			},
			"updated_fields": changed,
		},
	})

	return user, nil
}
