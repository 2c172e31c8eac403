package models

import (
	"time"
)

type Organization struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Users []User `gorm:"foreignKey:OrganizationID" json:"-"`
}
