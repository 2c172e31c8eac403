package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/task-tracker-api/internal/constants"
	"github.com/taskflow/task-tracker-api/internal/dto"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/services"
	"github.com/taskflow/task-tracker-api/internal/utils"
)

// AuditLogHandler serves the audit query endpoints. Every query is limited
// to the caller's organization.
type AuditLogHandler struct {
	auditService *services.AuditService
}

func NewAuditLogHandler(auditService *services.AuditService) *AuditLogHandler {
	return &AuditLogHandler{auditService: auditService}
}

// GetOrganizationLogs pages through the caller's organization
func (h *AuditLogHandler) GetOrganizationLogs(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	page, err := h.auditService.OrganizationLogs(c.Request.Context(), caller, utils.GetPaginationParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAuditPage(c, page)
}

// GetUserLogs pages through one user's actions
func (h *AuditLogHandler) GetUserLogs(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId", "user")
	if !ok {
		return
	}

	page, err := h.auditService.UserLogs(c.Request.Context(), caller, userID, utils.GetPaginationParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAuditPage(c, page)
}

// GetResourceLogs returns the history of one resource
func (h *AuditLogHandler) GetResourceLogs(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	resourceID, ok := parseIDParam(c, "resourceId", "resource")
	if !ok {
		return
	}

	page, err := h.auditService.ResourceLogs(c.Request.Context(), caller, models.AuditResource(c.Param("resource")), resourceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondAuditPage(c, page)
}

// GetRecentActivity returns everything from the last ?days days
func (h *AuditLogHandler) GetRecentActivity(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(constants.DefaultRecentActivityDays)))
	if err != nil {
		days = constants.DefaultRecentActivityDays
	}

	page, err := h.auditService.RecentActivity(c.Request.Context(), caller, days)
	if err != nil {
		respondError(c, err)
		return
	}
	respondAuditPage(c, page)
}

// GetMyActivity pages through the caller's own actions
func (h *AuditLogHandler) GetMyActivity(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	page, err := h.auditService.MyActivity(c.Request.Context(), caller, utils.GetPaginationParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAuditPage(c, page)
}

func respondAuditPage(c *gin.Context, page *services.AuditPage) {
	c.JSON(http.StatusOK, dto.ToAuditLogListResponse(page.Logs, page.Total, page.Page, page.Limit))
}
