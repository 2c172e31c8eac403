package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/task-tracker-api/internal/dto"
	apierrors "github.com/taskflow/task-tracker-api/internal/errors"
	"github.com/taskflow/task-tracker-api/internal/services"
)

type OrganizationHandler struct {
	orgService *services.OrganizationService
}

func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// CreateOrganization creates a new organization. Owners only.
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	type CreateOrgRequest struct {
		Name        string `json:"name" binding:"required,max=255"`
		Description string `json:"description"`
	}

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	org, err := h.orgService.CreateOrganization(c.Request.Context(), caller, services.CreateOrganizationInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationDTO(*org))
}

// ListOrganizations returns all organizations
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	orgs, err := h.orgService.ListOrganizations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationListResponse(orgs))
}

// GetOrganization returns an organization with its users
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	orgID, ok := parseIDParam(c, "id", "organization")
	if !ok {
		return
	}

	org, err := h.orgService.GetOrganization(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(*org))
}
