package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/task-tracker-api/internal/dto"
	apierrors "github.com/taskflow/task-tracker-api/internal/errors"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers returns the user directory
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users))
}

// GetUser returns one user
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// ListOrganizationUsers returns the members of one organization
func (h *UserHandler) ListOrganizationUsers(c *gin.Context) {
	orgID, ok := parseIDParam(c, "id", "organization")
	if !ok {
		return
	}

	users, err := h.userService.ListOrganizationUsers(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users))
}

// UpdateUser changes the role, organization or name of a user
func (h *UserHandler) UpdateUser(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		FirstName      *string          `json:"first_name" binding:"omitempty,max=100"`
		LastName       *string          `json:"last_name" binding:"omitempty,max=100"`
		Role           *models.UserRole `json:"role" binding:"omitempty,userrole"`
		OrganizationID *uint64          `json:"organization_id" binding:"omitempty,min=1"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), caller, userID, services.UpdateUserInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           req.Role,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
