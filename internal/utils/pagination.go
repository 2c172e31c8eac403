package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/task-tracker-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// GetPaginationParams extracts and validates pagination parameters from the request
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constants.DefaultPageSize)))

	return NewPaginationParams(page, limit)
}

// NewPaginationParams clamps page and limit into range and derives the offset.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < constants.DefaultPage {
		page = constants.DefaultPage
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Response builds the pagination metadata for a result of total rows.
func (p PaginationParams) Response(total int64) PaginationResponse {
	return PaginationResponse{Page: p.Page, Limit: p.Limit, Total: total}
}
