package dto

import (
	"time"

	"github.com/taskflow/task-tracker-api/internal/models"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrganizationDetailDTO represents detailed organization information
type OrganizationDetailDTO struct {
	OrganizationDTO
	Users []UserDTO `json:"users"`
}

// OrganizationListResponse represents a list of organizations
type OrganizationListResponse struct {
	Organizations []OrganizationDTO `json:"organizations"`
	Total         int               `json:"total"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:          org.ID,
		Name:        org.Name,
		Description: org.Description,
		CreatedAt:   org.CreatedAt,
		UpdatedAt:   org.UpdatedAt,
	}
}

// ToOrganizationDetailDTO converts an organization with its preloaded users
func ToOrganizationDetailDTO(org models.Organization) OrganizationDetailDTO {
	users := make([]UserDTO, len(org.Users))
	for i, user := range org.Users {
		users[i] = ToUserDTO(user)
	}
	return OrganizationDetailDTO{
		OrganizationDTO: ToOrganizationDTO(org),
		Users:           users,
	}
}

// ToOrganizationListResponse converts a slice of organizations
func ToOrganizationListResponse(orgs []models.Organization) OrganizationListResponse {
	items := make([]OrganizationDTO, len(orgs))
	for i, org := range orgs {
		items[i] = ToOrganizationDTO(org)
	}
	return OrganizationListResponse{Organizations: items, Total: len(items)}
}
