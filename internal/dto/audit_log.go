package dto

import (
	"encoding/json"
	"time"

	"github.com/taskflow/task-tracker-api/internal/models"
)

// AuditLogDTO represents one audit record
type AuditLogDTO struct {
	ID               uint64               `json:"id"`
	Action           models.AuditAction   `json:"action"`
	Resource         models.AuditResource `json:"resource"`
	ResourceID       uint64               `json:"resource_id"`
	Description      string               `json:"description"`
	Changes          json.RawMessage      `json:"changes,omitempty"`
	UserID           uint64               `json:"user_id"`
	OrganizationID   uint64               `json:"organization_id"`
	IPAddress        string               `json:"ip_address,omitempty"`
	UserAgent        string               `json:"user_agent,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	User             *UserSummaryDTO      `json:"user,omitempty"`
	OrganizationName string               `json:"organization_name,omitempty"`
}

// AuditLogListResponse carries a page (or a full set) of audit records.
// Total is the unpaged count.
type AuditLogListResponse struct {
	Logs  []AuditLogDTO `json:"logs"`
	Total int64         `json:"total"`
	Page  int           `json:"page,omitempty"`
	Limit int           `json:"limit,omitempty"`
}

// ToAuditLogDTO converts an AuditLog model
func ToAuditLogDTO(entry models.AuditLog) AuditLogDTO {
	out := AuditLogDTO{
		ID:             entry.ID,
		Action:         entry.Action,
		Resource:       entry.Resource,
		ResourceID:     entry.ResourceID,
		Description:    entry.Description,
		UserID:         entry.UserID,
		OrganizationID: entry.OrganizationID,
		IPAddress:      entry.IPAddress,
		UserAgent:      entry.UserAgent,
		CreatedAt:      entry.CreatedAt,
		User:           ToUserSummaryDTO(entry.User),
	}
	if len(entry.Changes) > 0 {
		out.Changes = json.RawMessage(entry.Changes)
	}
	if entry.Organization != nil {
		out.OrganizationName = entry.Organization.Name
	}
	return out
}

// ToAuditLogListResponse converts a result set
func ToAuditLogListResponse(entries []models.AuditLog, total int64, page, limit int) AuditLogListResponse {
	items := make([]AuditLogDTO, len(entries))
	for i, entry := range entries {
		items[i] = ToAuditLogDTO(entry)
	}
	return AuditLogListResponse{Logs: items, Total: total, Page: page, Limit: limit}
}
