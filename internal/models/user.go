package models

import (
	"time"
)

type UserRole string

const (
	RoleOwner  UserRole = "owner"
	RoleAdmin  UserRole = "admin"
	RoleViewer UserRole = "viewer"
	// RoleMember is the basic role; any unrecognised role string is treated as a member.
	RoleMember UserRole = "member"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleViewer, RoleMember:
		return true
	}
	return false
}

type User struct {
	ID             uint64    `gorm:"primarykey" json:"id"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"type:varchar(255);not null" json:"-"`
	FirstName      string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName       string    `gorm:"type:varchar(100)" json:"last_name"`
	Role           UserRole  `gorm:"type:varchar(20);not null;default:'viewer'" json:"role"`
	OrganizationID *uint64   `gorm:"index" json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}
