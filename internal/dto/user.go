package dto

import (
	"time"

	"github.com/taskflow/task-tracker-api/internal/models"
)

// UserDTO represents a user in API responses. The password hash never leaves the service.
type UserDTO struct {
	ID             uint64          `json:"id"`
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Role           models.UserRole `json:"role"`
	OrganizationID *uint64         `json:"organization_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// UserSummaryDTO is the short form embedded in tasks and audit rows
type UserSummaryDTO struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserListResponse represents a list of users
type UserListResponse struct {
	Users []UserDTO `json:"users"`
	Total int       `json:"total"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:             user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

// ToUserSummaryDTO returns nil when the relation was not preloaded
func ToUserSummaryDTO(user *models.User) *UserSummaryDTO {
	if user == nil || user.ID == 0 {
		return nil
	}
	return &UserSummaryDTO{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// ToUserListResponse converts a slice of users
func ToUserListResponse(users []models.User) UserListResponse {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return UserListResponse{Users: items, Total: len(items)}
}
