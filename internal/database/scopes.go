package database

import (
	"gorm.io/gorm"

	"github.com/taskflow/task-tracker-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// NewestFirst orders rows by creation time, newest first. The id tiebreak
// keeps pages stable when timestamps collide.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
