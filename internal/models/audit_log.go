package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate       AuditAction = "create"
	AuditActionUpdate       AuditAction = "update"
	AuditActionDelete       AuditAction = "delete"
	AuditActionComplete     AuditAction = "complete"
	AuditActionAssign       AuditAction = "assign"
	AuditActionStatusChange AuditAction = "status_change"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete,
		AuditActionComplete, AuditActionAssign, AuditActionStatusChange:
		return true
	}
	return false
}

type AuditResource string

const (
	AuditResourceTask         AuditResource = "task"
	AuditResourceUser         AuditResource = "user"
	AuditResourceOrganization AuditResource = "organization"
)

func (r AuditResource) Valid() bool {
	switch r {
	case AuditResourceTask, AuditResourceUser, AuditResourceOrganization:
		return true
	}
	return false
}

// AuditLog is append-only. It keeps its user and organization ids even after
// the referenced rows are gone.
type AuditLog struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Action         AuditAction    `gorm:"type:varchar(50);not null" json:"action"`
	Resource       AuditResource  `gorm:"type:varchar(50);not null" json:"resource"`
	ResourceID     uint64         `gorm:"not null" json:"resource_id"`
	Description    string         `gorm:"type:text" json:"description"`
	Changes        datatypes.JSON `json:"changes,omitempty"`
	UserID         uint64         `gorm:"not null" json:"user_id"`
	OrganizationID uint64         `gorm:"not null" json:"organization_id"`
	IPAddress      string         `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent      string         `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`

	// Relations
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
