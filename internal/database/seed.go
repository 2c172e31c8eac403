package database

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"

	"github.com/taskflow/task-tracker-api/internal/constants"
	"github.com/taskflow/task-tracker-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type seedUser struct {
	email     string
	firstName string
	lastName  string
	role      models.UserRole
}

var seedUsers = []seedUser{
	{"owner@test.com", "Owner", "User", models.RoleOwner},
	{"admin@test.com", "Admin", "User", models.RoleAdmin},
	{"viewer@test.com", "Viewer", "User", models.RoleViewer},
}

// SeedResult reports what Seed created.
type SeedResult struct {
	Organization *models.Organization
	Users        []models.User
}

// Seed creates the first-run organization and demo accounts. Each step runs
// only when its table is empty, so calling Seed on a populated store is a no-op.
// A nil logger means slog.Default.
func Seed(db *gorm.DB, logger *slog.Logger) (*SeedResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	result := &SeedResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		var orgCount int64
		if err := tx.Model(&models.Organization{}).Count(&orgCount).Error; err != nil {
			return fmt.Errorf("failed to count organizations: %w", err)
		}
		if orgCount == 0 {
			org := &models.Organization{
				Name:        constants.SeedOrganizationName,
				Description: constants.SeedOrganizationDescription,
			}
			if err := tx.Create(org).Error; err != nil {
				return fmt.Errorf("failed to create seed organization: %w", err)
			}
			result.Organization = org
			log.Printf("Seeded organization %q (id %d)", org.Name, org.ID)
		}

		var userCount int64
		if err := tx.Model(&models.User{}).Count(&userCount).Error; err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		if userCount > 0 {
			return nil
		}

		orgID := constants.DefaultOrganizationID
		if result.Organization != nil {
			orgID = result.Organization.ID
		} else {
			var first models.Organization
			if err := tx.Order("id ASC").First(&first).Error; err != nil {
				return fmt.Errorf("failed to load organization: %w", err)
			}
			orgID = first.ID
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(constants.SeedPassword), constants.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}

		for _, su := range seedUsers {
			user := models.User{
				Email:          su.email,
				PasswordHash:   string(hash),
				FirstName:      su.firstName,
				LastName:       su.lastName,
				Role:           su.role,
				OrganizationID: &orgID,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create seed user %s: %w", su.email, err)
			}

			result.Users = append(result.Users, user)
			log.Printf("Seeded user %s (%s)", user.Email, user.Role)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Audit rows are written after the users are committed; a failure here is
	// logged and does not undo the seed.
	for _, user := range result.Users {
		auditSeededUser(db, logger, user)
	}
	return result, nil
}

func auditSeededUser(db *gorm.DB, logger *slog.Logger, user models.User) {
	orgID := constants.DefaultOrganizationID
	if user.OrganizationID != nil {
		orgID = *user.OrganizationID
	}

	changes, err := json.Marshal(map[string]interface{}{"email": user.Email, "role": user.Role})
	if err != nil {
		logger.Error("failed to encode audit changes", "user_id", user.ID, "error", err)
		return
	}

	entry := models.AuditLog{
		Action:         models.AuditActionCreate,
		Resource:       models.AuditResourceUser,
		ResourceID:     user.ID,
		Description:    fmt.Sprintf("Seeded user %s with role %s", user.Email, user.Role),
		Changes:        datatypes.JSON(changes),
		UserID:         user.ID,
		OrganizationID: orgID,
	}
	if err := db.Create(&entry).Error; err != nil {
		logger.Error("failed to write audit log",
			"action", entry.Action, "resource", entry.Resource, "resource_id", entry.ResourceID,
			"user_id", entry.UserID, "organization_id", entry.OrganizationID, "error", err)
	}
}
